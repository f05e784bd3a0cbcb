// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/affipub/affipub/internal/model"
)

var imageColumns = []string{
	"id", "article_id", "filename", "stored_path", "width", "height",
	"wordpress_media_id", "wordpress_url", "uploaded_at",
}

func scanImage(row sq.RowScanner) (model.ArticleImage, error) {
	var img model.ArticleImage
	err := row.Scan(&img.ID, &img.ArticleID, &img.Filename, &img.StoredPath,
		&img.Width, &img.Height, &img.WordPressMediaID, &img.WordPressURL, &img.UploadedAt)
	return img, err
}

// AddArticleImage records an uploaded image for an article.
func (s *Store) AddArticleImage(ctx context.Context, img model.ArticleImage) (model.ArticleImage, error) {
	img.UploadedAt = time.Now().UTC()
	res, err := s.sb.Insert("article_images").
		Columns("article_id", "filename", "stored_path", "width", "height",
			"wordpress_media_id", "wordpress_url", "uploaded_at").
		Values(img.ArticleID, img.Filename, img.StoredPath, img.Width, img.Height,
			img.WordPressMediaID, img.WordPressURL, img.UploadedAt).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return model.ArticleImage{}, fmt.Errorf("adding article image: %w", err)
	}
	img.ID, err = res.LastInsertId()
	if err != nil {
		return model.ArticleImage{}, fmt.Errorf("adding article image: %w", err)
	}
	return img, nil
}

// ImagesByArticle returns an article's images in upload order. The
// first one becomes the featured image at publish time.
func (s *Store) ImagesByArticle(ctx context.Context, articleID int64) ([]model.ArticleImage, error) {
	rows, err := s.sb.Select(imageColumns...).From("article_images").
		Where(sq.Eq{"article_id": articleID}).
		OrderBy("id ASC").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing article images: %w", err)
	}
	defer rows.Close()

	var out []model.ArticleImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// CountImagesByArticle returns how many images an article already has.
func (s *Store) CountImagesByArticle(ctx context.Context, articleID int64) (int64, error) {
	var n int64
	err := s.sb.Select("COUNT(*)").From("article_images").
		Where(sq.Eq{"article_id": articleID}).
		RunWith(s.db).QueryRowContext(ctx).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting article images: %w", err)
	}
	return n, nil
}

// SetImageWordPressMedia records the WordPress media ID and URL after a
// successful upload.
func (s *Store) SetImageWordPressMedia(ctx context.Context, id int64, mediaID, url string) error {
	_, err := s.sb.Update("article_images").
		Set("wordpress_media_id", mediaID).
		Set("wordpress_url", url).
		Where(sq.Eq{"id": id}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("updating image media: %w", err)
	}
	return nil
}

// DeleteImage removes one image record.
func (s *Store) DeleteImage(ctx context.Context, articleID, id int64) error {
	res, err := s.sb.Delete("article_images").
		Where(sq.Eq{"id": id, "article_id": articleID}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
