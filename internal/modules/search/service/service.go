package service

import (
	"encoding/json"
	"log"

	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"uninet.id/campuslink/internal/entity"
)

// UserSearchService maintains the user directory index behind the social hub
// search box. Indexing failures are logged, never surfaced: the database
// fallback keeps search working without Meilisearch.
type UserSearchService interface {
	IndexUser(user *entity.User) error
	DeleteUser(id string) error
	Search(query string, limit int) ([]UserDoc, error)
}

type UserDoc struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Username   string `json:"username"`
	StudentID  string `json:"student_id"`
	Department string `json:"department"`
	AvatarURL  string `json:"avatar_url"`
}

type userSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewUserSearchService(client meilisearch.ServiceManager) UserSearchService {
	s := &userSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *userSearchService) initIndexes() {
	filterableAttrs := []string{"department"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index("users").UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.Printf("Failed to update users filterable attributes: %v", err)
	}

	searchableAttrs := []string{"name", "username", "student_id"}
	if _, err := s.client.Index("users").UpdateSearchableAttributes(&searchableAttrs); err != nil {
		log.Printf("Failed to update users searchable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

func (s *userSearchService) IndexUser(user *entity.User) error {
	doc := UserDoc{
		ID:         user.ID.String(),
		Name:       s.sanitizer.Sanitize(user.Name),
		Username:   user.Username,
		StudentID:  getStringOrEmpty(user.StudentID),
		Department: getStringOrEmpty(user.Department),
		AvatarURL:  getStringOrEmpty(user.AvatarURL),
	}

	task, err := s.client.Index("users").AddDocuments([]UserDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed user %s, task id: %d", user.ID, task.TaskUID)
	return nil
}

func (s *userSearchService) DeleteUser(id string) error {
	_, err := s.client.Index("users").DeleteDocument(id)
	return err
}

func (s *userSearchService) Search(query string, limit int) ([]UserDoc, error) {
	if limit <= 0 {
		limit = 5
	}

	res, err := s.client.Index("users").Search(query, &meilisearch.SearchRequest{
		Limit: int64(limit),
	})
	if err != nil {
		return nil, err
	}

	docs := make([]UserDoc, 0, len(res.Hits))
	for _, hit := range res.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc UserDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func getStringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	return &s
}
