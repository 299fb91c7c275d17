// Package dto provides HTTP request/response data transfer objects and
// RFC 9457 Problem Details error responses for the inbound HTTP adapter layer.
package dto

import (
	"time"

	"github.com/mentana/user-service/internal/domain/user"
	"github.com/mentana/user-service/internal/ports"
)

// UserResponse represents a single user in HTTP responses.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// UserListResponse represents a list of users in HTTP responses.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

// ToUserResponse converts a domain User entity to an HTTP response DTO.
func ToUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Active:    u.Active,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

// ToUserListResponse converts a slice of domain User entities to an HTTP
// list response DTO. An empty slice serializes as "users": [], never null.
func ToUserListResponse(users []user.User) UserListResponse {
	items := make([]UserResponse, len(users))
	for i := range users {
		items[i] = ToUserResponse(&users[i])
	}
	return UserListResponse{
		Users: items,
		Total: len(items),
	}
}

// StorageProbeResponse represents the result of a storage diagnostic probe.
type StorageProbeResponse struct {
	Key        string `json:"key"`
	Location   string `json:"location"`
	Verified   bool   `json:"verified"`
	UploadedAt string `json:"uploaded_at"`
}

// ToStorageProbeResponse converts a ports.ProbeResult to an HTTP response DTO.
func ToStorageProbeResponse(result *ports.ProbeResult) StorageProbeResponse {
	return StorageProbeResponse{
		Key:        result.Key,
		Location:   result.Location,
		Verified:   result.Verified,
		UploadedAt: result.UploadedAt.Format(time.RFC3339),
	}
}
