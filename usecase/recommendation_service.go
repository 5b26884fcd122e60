package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/gadgetguard/aegis/domain/entities"
	"github.com/gadgetguard/aegis/domain/repositories"
)

// SystemPrompt fixes the assistant's role for every generation request.
const SystemPrompt = "You are an AI assistant specialized in providing device recommendations and protection plan advice."

// renewalThresholdDays is the expiry horizon below which the prompt asks for
// a renewal suggestion.
const renewalThresholdDays = 90

// upgradeThresholdYears is the device age above which the prompt asks for an
// upgrade suggestion.
const upgradeThresholdYears = 3

// RecommendationService builds a deterministic device summary, requests
// free-text advice from the generator, and appends the result to the
// device's recommendation history.
type RecommendationService struct {
	devices   repositories.DeviceRepository
	generator repositories.RecommendationGenerator
	logger    *zap.Logger
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(devices repositories.DeviceRepository, generator repositories.RecommendationGenerator, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{
		devices:   devices,
		generator: generator,
		logger:    logger,
	}
}

// Generate resolves the device for the owner, asks the generator for advice,
// and persists the returned text. Prior recommendations are never replaced.
func (s *RecommendationService) Generate(ctx context.Context, userID, deviceID primitive.ObjectID) (string, error) {
	device, err := s.devices.GetByUserAndID(ctx, userID, deviceID)
	if err != nil {
		return "", err
	}

	prompt := BuildPrompt(device, time.Now())

	text, err := s.generator.Generate(ctx, SystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("recommendation generation failed: %w", err)
	}

	if err := s.devices.AppendRecommendation(ctx, deviceID, text); err != nil {
		return "", err
	}

	s.logger.Info("Recommendation appended",
		zap.String("device_id", deviceID.Hex()),
		zap.Int("length", len(text)))

	return text, nil
}

// BuildPrompt renders the device summary the generator is asked to advise
// on. The clause rules are load-bearing: downstream behavior (renewal and
// upgrade nudges, claim awareness) depends on them verbatim.
func BuildPrompt(device *entities.Device, now time.Time) string {
	var b strings.Builder

	// Age is rounded to one decimal before the threshold comparison, so the
	// printed age and the upgrade clause can never disagree.
	ageInYears := math.Round(device.AgeInYears(now)*10) / 10

	fmt.Fprintf(&b, "The user owns a %s (%s) manufactured by %s. The device was purchased on %s and is currently %.1f years old.",
		device.Name, device.Type, device.Manufacturer,
		device.PurchaseDate.Format("Mon Jan 02 2006"), ageInYears)

	if device.ProtectionPlan != nil {
		if days := device.ProtectionPlan.DaysUntilExpiry(now); days <= renewalThresholdDays {
			fmt.Fprintf(&b, " The protection plan expires in %d days. Suggest renewing the plan to avoid coverage gaps.", days)
		}
	}

	if ageInYears >= upgradeThresholdYears {
		b.WriteString(" Consider upgrading to the latest model, as the device is over 3 years old.")
	}

	if len(device.ClaimHistory) > 0 {
		b.WriteString(" The user has made the following claims: ")
		for _, claim := range device.ClaimHistory {
			fmt.Fprintf(&b, "\n- %s on %s, resolved as %s.",
				claim.Type, claim.Date.Format("Mon Jan 02 2006"), claim.Resolution)
		}
		b.WriteString(" Provide device upgrade suggestions, protection plan renewal reminders, and tips for preventing future damage.")
		b.WriteString("\nPlease provide a concise summary in 5 lines, separated by \\n, without any additional explanations or questions.")
	}

	return b.String()
}
