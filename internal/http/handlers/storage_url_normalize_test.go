package handlers

import (
	"testing"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/platform/gcp"
)

func TestResolveBucketBackedURL(t *testing.T) {
	b := gcp.NewMemoryBucketService("http://cdn.test")

	if got := resolveBucketBackedURL(b, gcp.BucketCategoryAvatar, "avatars/u/1.png", "http://old/url.png"); got != "http://cdn.test/avatar/avatars/u/1.png" {
		t.Fatalf("resolveBucketBackedURL (bucket): got=%q", got)
	}

	if got := resolveBucketBackedURL(nil, gcp.BucketCategoryAvatar, "avatars/u/1.png", " http://old/url.png "); got != "http://old/url.png" {
		t.Fatalf("resolveBucketBackedURL (no bucket): got=%q", got)
	}

	if got := resolveBucketBackedURL(b, gcp.BucketCategoryAvatar, "  ", " http://old/url.png "); got != "http://old/url.png" {
		t.Fatalf("resolveBucketBackedURL (no key): got=%q", got)
	}
}

func TestNormalizeAvatarAndSubmissionURLs(t *testing.T) {
	b := gcp.NewMemoryBucketService("http://cdn.test/")

	u := &types.User{
		AvatarBucketKey: "avatars/u/1.png",
		AvatarURL:       "http://localhost:4443/levelup-avatar/avatars/u/1.png",
	}
	normalizeUserAvatarURL(b, u)
	if u.AvatarURL != "http://cdn.test/avatar/avatars/u/1.png" {
		t.Fatalf("normalizeUserAvatarURL: got=%q", u.AvatarURL)
	}

	generated := &types.User{AvatarURL: "https://ui-avatars.test/ada"}
	normalizeUserAvatarURL(b, generated)
	if generated.AvatarURL != "https://ui-avatars.test/ada" {
		t.Fatalf("normalizeUserAvatarURL without key: got=%q", generated.AvatarURL)
	}
	normalizeUserAvatarURL(b, nil)

	team := &types.Team{
		Files: []types.SubmissionFile{
			{Name: "demo.zip", Key: "teams/t/demo.zip", URL: "legacy"},
			{Name: "notes.txt", Key: "", URL: "keep"},
		},
	}
	other := &types.Team{
		Files: []types.SubmissionFile{{Name: "deck.pdf", Key: "teams/o/deck.pdf"}},
	}
	normalizeTeamsFileURLs(b, []*types.Team{team, nil, other})
	if team.Files[0].URL != "http://cdn.test/submission/teams/t/demo.zip" {
		t.Fatalf("normalizeTeamFileURLs[0]: got=%q", team.Files[0].URL)
	}
	if team.Files[1].URL != "keep" {
		t.Fatalf("normalizeTeamFileURLs[1]: got=%q", team.Files[1].URL)
	}
	if other.Files[0].URL != "http://cdn.test/submission/teams/o/deck.pdf" {
		t.Fatalf("normalizeTeamsFileURLs other: got=%q", other.Files[0].URL)
	}
}
