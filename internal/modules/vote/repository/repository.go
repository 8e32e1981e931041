package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"uninet.id/campuslink/internal/entity"
)

type VoteRepository interface {
	Find(ctx context.Context, userID uuid.UUID, kind string, resourceID uuid.UUID) (*entity.Vote, error)
	// Insert, Switch and Remove adjust the denormalized tallies on the voted
	// resource inside the same transaction as the vote row.
	Insert(ctx context.Context, vote *entity.Vote) error
	Switch(ctx context.Context, vote *entity.Vote, newDirection string) error
	Remove(ctx context.Context, vote *entity.Vote) error
	Counts(ctx context.Context, kind string, resourceID uuid.UUID) (up, down int64, err error)
	// Owner resolves who gets notified about votes on a resource, plus its
	// display title. Returns uuid.Nil when the resource no longer exists.
	Owner(ctx context.Context, kind string, resourceID uuid.UUID) (uuid.UUID, string, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Find(ctx context.Context, userID uuid.UUID, kind string, resourceID uuid.UUID) (*entity.Vote, error) {
	var rows []entity.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND resource_kind = ? AND resource_id = ?", userID, kind, resourceID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// counterModel resolves the table that carries the tallies for a votable kind.
func counterModel(kind string) (interface{}, bool, error) {
	switch kind {
	case entity.VotableChannel:
		return &entity.Channel{}, false, nil
	case entity.VotableRepository:
		return &entity.RepositoryItem{}, true, nil
	default:
		return nil, false, fmt.Errorf("unknown votable kind %q", kind)
	}
}

func directionColumn(direction string) string {
	if direction == entity.VoteUp {
		return "upvotes"
	}
	return "downvotes"
}

// adjust applies a delta to one tally column, clamping at zero, and refreshes
// vote_score where the table has one.
func adjust(tx *gorm.DB, kind string, resourceID uuid.UUID, column string, delta int64) error {
	model, hasScore, err := counterModel(kind)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		column: gorm.Expr(fmt.Sprintf("GREATEST(0, %s + ?)", column), delta),
	}
	if err := tx.Model(model).Where("id = ?", resourceID).Updates(updates).Error; err != nil {
		return err
	}
	if hasScore {
		return tx.Model(model).Where("id = ?", resourceID).
			Update("vote_score", gorm.Expr("upvotes - downvotes")).Error
	}
	return nil
}

func (r *voteRepository) Insert(ctx context.Context, vote *entity.Vote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(vote).Error; err != nil {
			return err
		}
		return adjust(tx, vote.ResourceKind, vote.ResourceID, directionColumn(vote.Direction), 1)
	})
}

func (r *voteRepository) Switch(ctx context.Context, vote *entity.Vote, newDirection string) error {
	oldDirection := vote.Direction
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(vote).Update("direction", newDirection).Error; err != nil {
			return err
		}
		if err := adjust(tx, vote.ResourceKind, vote.ResourceID, directionColumn(oldDirection), -1); err != nil {
			return err
		}
		return adjust(tx, vote.ResourceKind, vote.ResourceID, directionColumn(newDirection), 1)
	})
}

func (r *voteRepository) Remove(ctx context.Context, vote *entity.Vote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.Vote{}, "id = ?", vote.ID).Error; err != nil {
			return err
		}
		return adjust(tx, vote.ResourceKind, vote.ResourceID, directionColumn(vote.Direction), -1)
	})
}

func (r *voteRepository) Owner(ctx context.Context, kind string, resourceID uuid.UUID) (uuid.UUID, string, error) {
	switch kind {
	case entity.VotableChannel:
		var rows []entity.Channel
		err := r.db.WithContext(ctx).Select("id", "owner_id", "name").
			Where("id = ?", resourceID).Limit(1).Find(&rows).Error
		if err != nil || len(rows) == 0 {
			return uuid.Nil, "", err
		}
		return rows[0].OwnerID, rows[0].Name, nil
	case entity.VotableRepository:
		var rows []entity.RepositoryItem
		err := r.db.WithContext(ctx).Select("id", "uploaded_by_id", "title").
			Where("id = ?", resourceID).Limit(1).Find(&rows).Error
		if err != nil || len(rows) == 0 {
			return uuid.Nil, "", err
		}
		return rows[0].UploadedByID, rows[0].Title, nil
	default:
		return uuid.Nil, "", fmt.Errorf("unknown votable kind %q", kind)
	}
}

func (r *voteRepository) Counts(ctx context.Context, kind string, resourceID uuid.UUID) (int64, int64, error) {
	var up, down int64
	base := r.db.WithContext(ctx).Model(&entity.Vote{}).
		Where("resource_kind = ? AND resource_id = ?", kind, resourceID)
	if err := base.Session(&gorm.Session{}).Where("direction = ?", entity.VoteUp).Count(&up).Error; err != nil {
		return 0, 0, err
	}
	if err := base.Session(&gorm.Session{}).Where("direction = ?", entity.VoteDown).Count(&down).Error; err != nil {
		return 0, 0, err
	}
	return up, down, nil
}
