package content

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aora/backend/internal/appwrite"
	"github.com/aora/backend/internal/models"
)

const createdAtAttribute = "$createdAt"

type userAttributes struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
}

type postAttributes struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Video     string `json:"video"`
	Prompt    string `json:"prompt"`
	Creator   string `json:"creator"`
}

func decodeUser(doc appwrite.Document) (models.User, error) {
	var attrs userAttributes
	if err := doc.Decode(&attrs); err != nil {
		return models.User{}, fmt.Errorf("decode user %s: %w", doc.ID, err)
	}
	return models.User{
		ID:        doc.ID,
		AccountID: attrs.AccountID,
		Email:     attrs.Email,
		Username:  attrs.Username,
		Avatar:    attrs.Avatar,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// decodePost accepts the creator either as a document id or as the expanded
// user document Appwrite returns for relationship attributes.
func decodePost(doc appwrite.Document) (models.Post, error) {
	var attrs struct {
		Title     string          `json:"title"`
		Thumbnail string          `json:"thumbnail"`
		Video     string          `json:"video"`
		Prompt    string          `json:"prompt"`
		Creator   json.RawMessage `json:"creator"`
	}
	if err := doc.Decode(&attrs); err != nil {
		return models.Post{}, fmt.Errorf("decode post %s: %w", doc.ID, err)
	}

	post := models.Post{
		ID:        doc.ID,
		Title:     attrs.Title,
		Thumbnail: attrs.Thumbnail,
		Video:     attrs.Video,
		Prompt:    attrs.Prompt,
		CreatedAt: doc.CreatedAt,
	}

	creator := bytes.TrimSpace(attrs.Creator)
	switch {
	case len(creator) == 0 || bytes.Equal(creator, []byte("null")):
	case creator[0] == '"':
		if err := json.Unmarshal(creator, &post.Creator); err != nil {
			return models.Post{}, fmt.Errorf("decode post %s creator: %w", doc.ID, err)
		}
	default:
		var userDoc appwrite.Document
		if err := json.Unmarshal(creator, &userDoc); err != nil {
			return models.Post{}, fmt.Errorf("decode post %s creator: %w", doc.ID, err)
		}
		user, err := decodeUser(userDoc)
		if err != nil {
			return models.Post{}, err
		}
		post.Creator = user.ID
		post.CreatorUser = &user
	}

	return post, nil
}
