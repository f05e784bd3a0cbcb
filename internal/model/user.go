// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// User is the owner of sites, articles and linking configuration.
// Authentication itself is handled outside this application; the user
// table exists so that all content remains owner-scoped.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
