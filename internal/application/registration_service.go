package application

import (
	"context"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casa-guarda/service-listing/internal/domain"
	"github.com/casa-guarda/service-listing/internal/domain/profile"
	"github.com/casa-guarda/service-listing/internal/storage"
)

// PictureUpload is an optional profile picture sent with a sign-up.
type PictureUpload struct {
	Name string
	Data []byte
}

// RegisterRequest is a public sign-up.
type RegisterRequest struct {
	Email             string
	Password          string
	RepeatPassword    string
	FirstName         string
	LastName          string
	PhoneNumber       string
	Country           string
	PreferredLanguage string
	Picture           *PictureUpload
}

// RegistrationService creates self-registered accounts. They start inactive
// with the user role until an admin activates them.
type RegistrationService struct {
	profiles *ProfileService
	objects  storage.ObjectStore
	bucket   string
	logger   *zap.Logger
}

// NewRegistrationService creates a new RegistrationService storing pictures in bucket.
func NewRegistrationService(profiles *ProfileService, objects storage.ObjectStore, bucket string, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{profiles: profiles, objects: objects, bucket: bucket, logger: logger}
}

// Register validates the sign-up, uploads the picture under the new user's
// id and saves the profile. The picture is removed again if saving fails.
func (s *RegistrationService) Register(ctx context.Context, req RegisterRequest) (*UserDTO, error) {
	if req.Password != req.RepeatPassword {
		return nil, domain.NewValidationError("passwords do not match")
	}

	create := CreateUserRequest{
		UserID:            uuid.New(),
		Email:             req.Email,
		Password:          req.Password,
		Role:              string(profile.RoleUser),
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		PhoneNumber:       req.PhoneNumber,
		Country:           req.Country,
		PreferredLanguage: req.PreferredLanguage,
		Inactive:          true,
	}
	if err := s.profiles.CheckNewUser(ctx, create); err != nil {
		return nil, err
	}

	var pictureKey string
	if req.Picture != nil {
		if len(req.Picture.Data) == 0 {
			return nil, domain.NewValidationError("profile picture is empty")
		}
		mtype := mimetype.Detect(req.Picture.Data)
		if !strings.HasPrefix(mtype.String(), "image/") {
			return nil, domain.NewValidationError("profile picture is not an image (" + mtype.String() + ")")
		}

		pictureKey = storage.ObjectKey(create.UserID, uuid.New())
		path, err := s.objects.Upload(ctx, s.bucket, pictureKey, mtype.String(), req.Picture.Data)
		if err != nil {
			return nil, err
		}
		create.PictureURL = s.objects.PublicURL(s.bucket, path)
	}

	user, err := s.profiles.CreateUser(ctx, create)
	if err != nil {
		if pictureKey != "" {
			if rmErr := s.objects.Remove(ctx, s.bucket, []string{pictureKey}); rmErr != nil {
				s.logger.Warn("failed to remove orphaned profile picture",
					zap.String("user_id", create.UserID.String()),
					zap.String("key", pictureKey),
					zap.Error(rmErr),
				)
			}
		}
		return nil, err
	}
	return user, nil
}
