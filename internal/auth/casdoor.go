package auth

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/question-bank-service/internal/config"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

// Casdoor user properties carrying the question bank claims.
const (
	propertyRole       = "role"
	propertySchoolID   = "schoolId"
	propertySchoolName = "schoolName"
	propertySubjects   = "subjects"
	propertyGrades     = "grades"
)

// CasdoorVerifier checks tokens issued by a Casdoor application.
type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

func NewCasdoorVerifier(cfg config.CasdoorConfig) *CasdoorVerifier {
	return &CasdoorVerifier{
		client: casdoorsdk.NewClient(
			cfg.Endpoint,
			cfg.ClientID,
			cfg.ClientSecret,
			cfg.Certificate,
			cfg.Organization,
			cfg.Application,
		),
	}
}

func (v *CasdoorVerifier) Verify(token string) (*models.AuthContext, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casdoor token: %w", err)
	}
	return userToAuth(&claims.User), nil
}

// userToAuth reads the role from the "role" property, then the user tag,
// then the first assigned Casdoor role.
func userToAuth(user *casdoorsdk.User) *models.AuthContext {
	props := user.Properties

	role := strings.TrimSpace(props[propertyRole])
	if role == "" {
		role = user.Tag
	}
	if role == "" {
		for _, r := range user.Roles {
			if r != nil && r.Name != "" {
				role = r.Name
				break
			}
		}
	}

	name := user.DisplayName
	if name == "" {
		name = user.Name
	}
	id := user.Id
	if id == "" {
		id = user.Name
	}

	schoolName := props[propertySchoolName]
	if schoolName == "" {
		schoolName = user.Affiliation
	}

	return &models.AuthContext{
		UserID:           id,
		UserName:         name,
		Role:             models.ParseRole(role),
		SchoolID:         strings.TrimSpace(props[propertySchoolID]),
		SchoolName:       strings.TrimSpace(schoolName),
		AssignedSubjects: models.SplitList(props[propertySubjects]),
		AssignedGrades:   models.SplitList(props[propertyGrades]),
	}
}
