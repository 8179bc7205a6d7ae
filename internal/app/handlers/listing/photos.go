package listing

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/app/actor"
	"stayhub/internal/app/policies"
	"stayhub/internal/app/uow"
	domainlisting "stayhub/internal/domain/listing"
)

const uploadPhotoKey = "listing.photos.upload"

const maxPhotoBytes = 10 << 20

type UploadPhotoCommand struct {
	ListingID   string
	Actor       actor.Actor
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (c UploadPhotoCommand) Key() string { return uploadPhotoKey }

type UploadPhotoResult struct {
	ListingID string `json:"listing_id"`
	URL       string `json:"url"`
}

// UploadPhotoHandler streams a photo into object storage and records the URL
// on the listing. The object key is owner-scoped so uploads never collide.
type UploadPhotoHandler struct {
	UoWFactory uow.Factory
	Storage    policies.PhotoStoragePort
	Clock      func() time.Time
}

func (h *UploadPhotoHandler) Handle(ctx context.Context, cmd UploadPhotoCommand) (*UploadPhotoResult, error) {
	if h.Storage == nil {
		return nil, fmt.Errorf("listing: photo storage not configured")
	}
	if cmd.Size <= 0 || cmd.Size > maxPhotoBytes {
		return nil, fmt.Errorf("listing: photo size must be between 1 byte and %d bytes", maxPhotoBytes)
	}
	contentType := strings.ToLower(strings.TrimSpace(cmd.ContentType))
	if contentType != "image/jpeg" && contentType != "image/png" && contentType != "image/webp" {
		return nil, fmt.Errorf("listing: unsupported photo content type %q", cmd.ContentType)
	}

	var result *UploadPhotoResult
	err := h.withUnit(ctx, func(ctx context.Context, unit uow.UnitOfWork) error {
		l, err := unit.Listings().ByID(ctx, domainlisting.ListingID(cmd.ListingID))
		if err != nil {
			return err
		}
		if !cmd.Actor.Privileged() && string(l.Owner) != cmd.Actor.ID {
			return actor.ErrForbidden
		}

		key := fmt.Sprintf("listings/%s/%s%s", l.ID, uuid.NewString(), path.Ext(cmd.Filename))
		url, err := h.Storage.Upload(ctx, key, contentType, cmd.Size, cmd.Body)
		if err != nil {
			return err
		}
		if err := l.AddPhoto(url, h.now()); err != nil {
			// Best effort: the object is orphaned if removal fails too.
			_ = h.Storage.Remove(ctx, key)
			return err
		}
		if err := unit.Listings().Save(ctx, l); err != nil {
			_ = h.Storage.Remove(ctx, key)
			return err
		}
		result = &UploadPhotoResult{ListingID: string(l.ID), URL: url}
		return nil
	})
	return result, err
}

func (h *UploadPhotoHandler) withUnit(ctx context.Context, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return fn(ctx, unit)
	}
	if h.UoWFactory == nil {
		return ErrUnitOfWorkRequired
	}
	unit, err := h.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	ctx = uow.ContextWithUnitOfWork(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()
	if err := fn(ctx, unit); err != nil {
		return err
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

func (h *UploadPhotoHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}
