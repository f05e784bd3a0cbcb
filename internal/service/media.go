// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/affipub/affipub/internal/imaging"
	"github.com/affipub/affipub/internal/model"
	"github.com/affipub/affipub/internal/store"
	"github.com/affipub/affipub/internal/util"
)

// MediaService runs the article image upload pipeline.
type MediaService struct {
	st        *store.Store
	processor *imaging.Processor
	events    *EventService
}

// NewMediaService creates a MediaService storing files through processor.
func NewMediaService(st *store.Store, processor *imaging.Processor, events *EventService) *MediaService {
	return &MediaService{st: st, processor: processor, events: events}
}

// AttachImage validates, processes and records one uploaded image for
// an article the user owns.
func (s *MediaService) AttachImage(ctx context.Context, userID, articleID int64, filename string, size int64, r io.Reader) (model.ArticleImage, error) {
	if _, err := s.st.ArticleByID(ctx, userID, articleID); err != nil {
		return model.ArticleImage{}, err
	}

	if err := imaging.ValidateUpload(filename, size); err != nil {
		return model.ArticleImage{}, err
	}

	count, err := s.st.CountImagesByArticle(ctx, articleID)
	if err != nil {
		return model.ArticleImage{}, err
	}
	if count >= imaging.MaxImagesPerArticle {
		return model.ArticleImage{}, fmt.Errorf("article already has %d images", imaging.MaxImagesPerArticle)
	}

	key := uuid.NewString()
	result, err := s.processor.Process(io.LimitReader(r, imaging.MaxUploadSize+1), key, util.Slugify(trimExt(filename))+ext(filename))
	if err != nil {
		_ = s.events.LogWarning(ctx, model.EventCategoryMedia, "image upload rejected: "+err.Error(), &userID, map[string]any{
			"article_id": articleID,
			"filename":   filename,
		})
		return model.ArticleImage{}, err
	}

	img, err := s.st.AddArticleImage(ctx, model.ArticleImage{
		ArticleID:  articleID,
		Filename:   filename,
		StoredPath: result.Path,
		Width:      int64(result.Width),
		Height:     int64(result.Height),
	})
	if err != nil {
		_ = s.processor.Remove(key)
		return model.ArticleImage{}, err
	}

	_ = s.events.LogInfo(ctx, model.EventCategoryMedia, "image attached", &userID, map[string]any{
		"article_id": articleID,
		"image_id":   img.ID,
	})
	return img, nil
}

func trimExt(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

func ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Images lists an article's images after an ownership check.
func (s *MediaService) Images(ctx context.Context, userID, articleID int64) ([]model.ArticleImage, error) {
	if _, err := s.st.ArticleByID(ctx, userID, articleID); err != nil {
		return nil, err
	}
	return s.st.ImagesByArticle(ctx, articleID)
}
