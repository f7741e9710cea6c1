package handlers

import (
	"strings"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/platform/gcp"
)

func resolveBucketBackedURL(
	bucket gcp.BucketService,
	category gcp.BucketCategory,
	storageKey string,
	currentURL string,
) string {
	key := strings.TrimSpace(storageKey)
	if bucket == nil || key == "" {
		return strings.TrimSpace(currentURL)
	}
	resolved := strings.TrimSpace(bucket.GetPublicURL(category, key))
	if resolved == "" {
		return strings.TrimSpace(currentURL)
	}
	return resolved
}

func normalizeUserAvatarURL(bucket gcp.BucketService, u *types.User) {
	if u == nil {
		return
	}
	u.AvatarURL = resolveBucketBackedURL(bucket, gcp.BucketCategoryAvatar, u.AvatarBucketKey, u.AvatarURL)
}

func normalizeTeamFileURLs(bucket gcp.BucketService, t *types.Team) {
	if t == nil {
		return
	}
	for i := range t.Files {
		f := &t.Files[i]
		f.URL = resolveBucketBackedURL(bucket, gcp.BucketCategorySubmission, f.Key, f.URL)
	}
}

func normalizeTeamsFileURLs(bucket gcp.BucketService, teams []*types.Team) {
	for _, t := range teams {
		normalizeTeamFileURLs(bucket, t)
	}
}
