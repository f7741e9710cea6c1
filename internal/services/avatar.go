package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"strings"
	"time"
	"unicode"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/levelup-backend/internal/data/repos"
	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/apierr"
	"github.com/yungbote/levelup-backend/internal/platform/gcp"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

const (
	avatarSize     = 512
	maxAvatarBytes = 5 << 20
)

type AvatarService interface {
	// CreateAndUploadUserAvatar renders an initials avatar, uploads it and
	// stores the new key and url on the account.
	CreateAndUploadUserAvatar(ctx context.Context, u *types.User) error
	// UploadAvatarImage replaces the caller's avatar with a cropped copy of raw.
	UploadAvatarImage(ctx context.Context, raw []byte) (*types.User, error)
	GenerateUserAvatar(u *types.User) (bytes.Buffer, error)
}

type avatarService struct {
	log           *logger.Logger
	userRepo      repos.UserRepo
	bucketService gcp.BucketService
	palette       []color.NRGBA
	fontFace      font.Face
	now           func() time.Time
}

var defaultAvatarPalette = []color.NRGBA{
	{R: 0xE5, G: 0x73, B: 0x73, A: 0xFF},
	{R: 0xF0, G: 0x62, B: 0x92, A: 0xFF},
	{R: 0xBA, G: 0x68, B: 0xC8, A: 0xFF},
	{R: 0x79, G: 0x86, B: 0xCB, A: 0xFF},
	{R: 0x4F, G: 0xC3, B: 0xF7, A: 0xFF},
	{R: 0x4D, G: 0xB6, B: 0xAC, A: 0xFF},
	{R: 0x81, G: 0xC7, B: 0x84, A: 0xFF},
	{R: 0xFF, G: 0xB7, B: 0x4D, A: 0xFF},
	{R: 0xA1, G: 0x88, B: 0x7F, A: 0xFF},
	{R: 0x90, G: 0xA4, B: 0xAE, A: 0xFF},
}

func NewAvatarService(log *logger.Logger, userRepo repos.UserRepo, bucketService gcp.BucketService) (AvatarService, error) {
	face, err := loadFontFace(goregular.TTF, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}
	return &avatarService{
		log:           log.With("service", "AvatarService"),
		userRepo:      userRepo,
		bucketService: bucketService,
		palette:       defaultAvatarPalette,
		fontFace:      face,
		now:           time.Now,
	}, nil
}

func (as *avatarService) CreateAndUploadUserAvatar(ctx context.Context, u *types.User) error {
	if u == nil || u.ID == uuid.Nil {
		return fmt.Errorf("user required")
	}
	buf, err := as.GenerateUserAvatar(u)
	if err != nil {
		return err
	}
	return as.store(ctx, u, buf)
}

func (as *avatarService) UploadAvatarImage(ctx context.Context, raw []byte) (*types.User, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || len(raw) > maxAvatarBytes {
		return nil, apierr.BadRequest("invalid_avatar", "avatar must be a non-empty image up to 5MB")
	}
	u, err := as.userRepo.GetByID(dbctx.Context{Ctx: ctx}, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found", "user not found")
	}
	processed, err := processUploadedAvatar(raw, avatarSize)
	if err != nil {
		return nil, apierr.BadRequest("invalid_avatar", err.Error())
	}
	if err := as.store(ctx, u, processed); err != nil {
		return nil, err
	}
	return u, nil
}

// store uploads under a versioned key, repoints the account and then removes
// the previous object best-effort.
func (as *avatarService) store(ctx context.Context, u *types.User, buf bytes.Buffer) error {
	oldKey := strings.TrimSpace(u.AvatarBucketKey)
	newKey := fmt.Sprintf("user_avatar/%s/%d.png", u.ID.String(), as.now().UnixNano())

	obj, err := as.bucketService.UploadFile(ctx, gcp.BucketCategoryAvatar, newKey, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("failed to upload user avatar: %w", err)
	}
	if err := as.userRepo.UpdateAvatarFields(dbctx.Context{Ctx: ctx}, u.ID, obj.Key, obj.URL); err != nil {
		return fmt.Errorf("failed to save avatar fields: %w", err)
	}
	u.AvatarBucketKey = obj.Key
	u.AvatarURL = obj.URL

	if oldKey != "" && oldKey != newKey {
		if err := as.bucketService.DeleteFile(ctx, gcp.BucketCategoryAvatar, oldKey); err != nil {
			as.log.Warn("failed to delete old avatar (ignored)", "oldKey", oldKey, "error", err)
		}
	}
	return nil
}

func (as *avatarService) GenerateUserAvatar(u *types.User) (bytes.Buffer, error) {
	var buf bytes.Buffer
	if u == nil {
		return buf, fmt.Errorf("user required")
	}
	size := float64(avatarSize)
	dc := gg.NewContext(avatarSize, avatarSize)

	dc.DrawCircle(size/2, size/2, size/2)
	dc.Clip()

	dc.SetColor(as.colorFor(u.ID))
	dc.DrawRectangle(0, 0, size, size)
	dc.Fill()

	initials := computeInitials(u.FirstName, u.LastName, u.Email)
	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(initials, size/2, size/2, 0.5, 0.35)

	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

// colorFor is stable per account so regenerated avatars keep their colour.
func (as *avatarService) colorFor(id uuid.UUID) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write(id[:])
	return as.palette[h.Sum32()%uint32(len(as.palette))]
}

func processUploadedAvatar(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	// Center-crop to square
	b := img.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}

func computeInitials(first, last, email string) string {
	initial := func(s string) string {
		for _, r := range strings.TrimSpace(s) {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return string(unicode.ToUpper(r))
			}
		}
		return ""
	}
	out := initial(first) + initial(last)
	if out == "" {
		out = initial(email)
	}
	if out == "" {
		out = "?"
	}
	return out
}

func loadFontFace(fontBytes []byte, size float64) (font.Face, error) {
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
