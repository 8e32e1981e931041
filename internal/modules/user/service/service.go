package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"uninet.id/campuslink/internal/entity"
	friendshipService "uninet.id/campuslink/internal/modules/friendship/service"
	moderationDto "uninet.id/campuslink/internal/modules/moderation/dto"
	moderationService "uninet.id/campuslink/internal/modules/moderation/service"
	searchService "uninet.id/campuslink/internal/modules/search/service"
	userDto "uninet.id/campuslink/internal/modules/user/dto"
	userRepo "uninet.id/campuslink/internal/modules/user/repository"
	"uninet.id/campuslink/pkg/apperror"
	"uninet.id/campuslink/pkg/dto"
)

const searchLimit = 5

// AccountRestrictedError carries the moderation status to the login handler
// so a suspended or banned user sees why they are locked out.
type AccountRestrictedError struct {
	Status moderationDto.AccountStatusResponse
}

func (e *AccountRestrictedError) Error() string {
	return e.Status.Description
}

func (e *AccountRestrictedError) Unwrap() error {
	return apperror.ErrForbidden
}

type UserService interface {
	Register(ctx context.Context, input userDto.RegisterInput) (*userDto.AuthResponse, error)
	// Login checks credentials, then the account's moderation status. An
	// expired suspension is lifted on the way in.
	Login(ctx context.Context, input userDto.LoginInput) (*userDto.AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input userDto.UpdateProfileInput) (*entity.User, error)
	// SearchUsers queries the directory index, falling back to the database,
	// and annotates each hit with the caller's friendship status.
	SearchUsers(ctx context.Context, callerID uuid.UUID, query string) ([]userDto.SearchResult, error)
}

type userService struct {
	repo              userRepo.UserRepository
	searchService     searchService.UserSearchService
	moderationService moderationService.ModerationService
	friendshipService friendshipService.FriendshipService
	jwtSecret         string
	jwtTTL            time.Duration
}

func NewUserService(
	repo userRepo.UserRepository,
	search searchService.UserSearchService,
	moderation moderationService.ModerationService,
	friendship friendshipService.FriendshipService,
	jwtSecret string,
	jwtTTLMinutes int,
) UserService {
	return &userService{
		repo:              repo,
		searchService:     search,
		moderationService: moderation,
		friendshipService: friendship,
		jwtSecret:         jwtSecret,
		jwtTTL:            time.Duration(jwtTTLMinutes) * time.Minute,
	}
}

func (s *userService) Register(ctx context.Context, input userDto.RegisterInput) (*userDto.AuthResponse, error) {
	if existing, err := s.repo.FindByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, apperror.New(http.StatusConflict, "email is already registered", apperror.ErrAlreadyExists)
	}
	if existing, err := s.repo.FindByUsername(ctx, input.Username); err == nil && existing != nil {
		return nil, apperror.New(http.StatusConflict, "username is already taken", apperror.ErrAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		Name:         input.Name,
		StudentID:    input.StudentID,
		Department:   input.Department,
	}
	if role, err := s.repo.FindRoleByName(ctx, entity.RoleStudent); err == nil && role != nil {
		user.RoleID = &role.ID
		user.Role = *role
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.indexAsync(user)

	return s.authResponse(user)
}

func (s *userService) Login(ctx context.Context, input userDto.LoginInput) (*userDto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, apperror.New(http.StatusUnauthorized, "invalid email or password", apperror.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperror.New(http.StatusUnauthorized, "invalid email or password", apperror.ErrUnauthorized)
	}

	if s.moderationService != nil {
		if _, err := s.moderationService.CheckExpiryOnAccess(ctx, user); err != nil {
			return nil, err
		}
		if user.AccountStatus != entity.AccountActive {
			return nil, &AccountRestrictedError{
				Status: s.moderationService.Describe(entity.AccountStateOf(user)),
			}
		}
	}

	return s.authResponse(user)
}

func (s *userService) Me(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID.String())
	if err != nil {
		return nil, apperror.New(http.StatusNotFound, "user not found", apperror.ErrNotFound)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, input userDto.UpdateProfileInput) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID.String())
	if err != nil {
		return nil, apperror.New(http.StatusNotFound, "user not found", apperror.ErrNotFound)
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Department != nil {
		user.Department = input.Department
	}
	if input.AvatarURL != nil {
		user.AvatarURL = input.AvatarURL
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.indexAsync(user)
	return user, nil
}

func (s *userService) SearchUsers(ctx context.Context, callerID uuid.UUID, query string) ([]userDto.SearchResult, error) {
	summaries := s.searchIndex(query)
	if summaries == nil {
		users, err := s.repo.Search(ctx, query, callerID, searchLimit)
		if err != nil {
			return nil, err
		}
		for i := range users {
			summaries = append(summaries, dto.UserSummary{
				ID:         users[i].ID,
				Name:       users[i].Name,
				Username:   users[i].Username,
				StudentID:  users[i].StudentID,
				Department: users[i].Department,
				AvatarURL:  users[i].AvatarURL,
			})
		}
	}

	results := make([]userDto.SearchResult, 0, len(summaries))
	for _, summary := range summaries {
		if summary.ID == callerID {
			continue
		}
		result := userDto.SearchResult{User: summary, FriendshipStatus: "none"}
		if s.friendshipService != nil {
			status, requestID, err := s.friendshipService.StatusBetween(ctx, callerID, summary.ID)
			if err == nil {
				result.FriendshipStatus = status
				result.RequestID = requestID
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// searchIndex returns nil (not empty) when the index is unavailable, which
// signals the caller to fall back to the database.
func (s *userService) searchIndex(query string) []dto.UserSummary {
	if s.searchService == nil {
		return nil
	}
	docs, err := s.searchService.Search(query, searchLimit)
	if err != nil {
		log.Printf("User index search failed, falling back to database: %v", err)
		return nil
	}

	summaries := make([]dto.UserSummary, 0, len(docs))
	for _, doc := range docs {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			continue
		}
		summary := dto.UserSummary{ID: id, Name: doc.Name, Username: doc.Username}
		if doc.StudentID != "" {
			v := doc.StudentID
			summary.StudentID = &v
		}
		if doc.Department != "" {
			v := doc.Department
			summary.Department = &v
		}
		if doc.AvatarURL != "" {
			v := doc.AvatarURL
			summary.AvatarURL = &v
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func (s *userService) authResponse(user *entity.User) (*userDto.AuthResponse, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &userDto.AuthResponse{
		Token: token,
		User: dto.UserSummary{
			ID:         user.ID,
			Name:       user.Name,
			Username:   user.Username,
			StudentID:  user.StudentID,
			Department: user.Department,
			AvatarURL:  user.AvatarURL,
		},
		Role: user.Role.Name,
	}, nil
}

func (s *userService) indexAsync(user *entity.User) {
	if s.searchService == nil {
		return
	}
	snapshot := *user
	go func() {
		if err := s.searchService.IndexUser(&snapshot); err != nil {
			log.Printf("Failed to index user %s: %v", snapshot.ID, err)
		}
	}()
}
