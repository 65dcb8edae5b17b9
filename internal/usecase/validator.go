package usecase

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/pkg/logger"
)

// Validation rule identifiers, used for the per-rule breakdown
const (
	RuleTitleTooShort      = "title_too_short"
	RuleTitleTooLong       = "title_too_long"
	RuleUnparsableDatetime = "datetime_unparsable"
	RulePastDatetime       = "datetime_past"
	RuleBeforeOpening      = "before_opening_hour"
	RuleLateStart          = "late_start"
	RuleBeyondHorizon      = "beyond_horizon"
	RuleHolidayClosure     = "holiday_closure"
	RulePartialClosure     = "partial_closure_risk"
	RuleURLMissing         = "booking_url_missing"
	RuleURLInvalid         = "booking_url_invalid"
	RuleURLPlaceholder     = "booking_url_placeholder"
)

const maxTitleLength = 200

// Matches "undefined" or "null" as a standalone path or query token,
// not as a substring of a real word ("/film/annulled/" is fine)
var placeholderToken = regexp.MustCompile(`(?i)\b(undefined|null)\b`)

// ValidatorConfig holds the tunable validation thresholds
type ValidatorConfig struct {
	EarliestScreeningHour int // cinemas do not open before this hour
	LatestStartHour       int // starts at or after this hour warn only
	FutureHorizonDays     int // beyond this the date is likely misparsed
}

// ValidationResult partitions rule outcomes for one record. A record is
// accepted iff Errors is empty; warnings never block ingestion.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// BatchSummary is what downstream anomaly detection treats as the run's
// screening count
type BatchSummary struct {
	Total    int
	Valid    int
	Rejected int
	Warnings int
	ByRule   map[string]int
}

// BatchResult holds the partitioned outcome of a batch validation
type BatchResult struct {
	Accepted []entity.RawScreening
	Rejected []entity.RawScreening
	Summary  BatchSummary
}

// Validator applies the business rules to raw screenings
type Validator struct {
	config ValidatorConfig
	logger logger.Logger
	now    func() time.Time
}

// NewValidator creates a new validator
func NewValidator(config ValidatorConfig, logger logger.Logger) *Validator {
	return &Validator{
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Validate applies every rule independently and accumulates the
// violations; rules never short-circuit each other.
func (v *Validator) Validate(raw entity.RawScreening) ValidationResult {
	var result ValidationResult
	now := v.now()

	// Title bounds count characters, not bytes; accented titles are
	// everyday input here
	title := strings.TrimSpace(raw.Title)
	if utf8.RuneCountInString(title) < 2 {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: title %q is absent or too short", RuleTitleTooShort, raw.Title))
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: title exceeds %d characters", RuleTitleTooLong, maxTitleLength))
	}

	// Datetime
	if raw.StartsAt.IsZero() {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: could not parse %q", RuleUnparsableDatetime, raw.RawStart))
	} else {
		if raw.StartsAt.Before(now) {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: screening at %s already passed", RulePastDatetime, raw.StartsAt.Format(time.RFC3339)))
		}
		if raw.StartsAt.Hour() < v.config.EarliestScreeningHour {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %02d:00 is before opening hour %02d:00", RuleBeforeOpening, raw.StartsAt.Hour(), v.config.EarliestScreeningHour))
		}
		if raw.StartsAt.Hour() >= v.config.LatestStartHour {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: start at %02d:%02d is unusually late", RuleLateStart, raw.StartsAt.Hour(), raw.StartsAt.Minute()))
		}
		if raw.StartsAt.After(now.AddDate(0, 0, v.config.FutureHorizonDays)) {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s is more than %d days out, likely a date-parsing error", RuleBeyondHorizon, raw.StartsAt.Format("2006-01-02"), v.config.FutureHorizonDays))
		}

		// Calendar exceptions are signals for a reviewer, never
		// rejections; some venues do open on these dates
		if isFullClosureDate(raw.StartsAt) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s falls on a full-closure holiday", RuleHolidayClosure, raw.StartsAt.Format("2 January")))
		}
		if isPartialClosureDate(raw.StartsAt) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s is a partial-closure-risk date", RulePartialClosure, raw.StartsAt.Format("2 January")))
		}
	}

	// Booking URL
	if strings.TrimSpace(raw.BookingURL) == "" {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: no booking link supplied", RuleURLMissing))
	} else {
		parsed, err := url.Parse(raw.BookingURL)
		if err != nil || !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %q is not an absolute http(s) URL", RuleURLInvalid, raw.BookingURL))
		}
		if placeholderToken.MatchString(raw.BookingURL) {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %q contains a templating placeholder", RuleURLPlaceholder, raw.BookingURL))
		}
	}

	return result
}

// ValidateScreenings partitions a batch into accepted and rejected
// sets, deduplicates the accepted set by source-native identifier
// (first occurrence wins), and summarizes the outcome.
func (v *Validator) ValidateScreenings(raws []entity.RawScreening) BatchResult {
	result := BatchResult{
		Summary: BatchSummary{
			Total:  len(raws),
			ByRule: make(map[string]int),
		},
	}

	seenSourceIDs := make(map[string]bool)

	for _, raw := range raws {
		// Trim here so accepted records carry the cleaned title into
		// film resolution; " Stalker " and "Stalker" are one film
		raw.Title = strings.TrimSpace(raw.Title)
		validation := v.Validate(raw)

		for _, e := range validation.Errors {
			result.Summary.ByRule[ruleKey(e)]++
		}
		for _, w := range validation.Warnings {
			result.Summary.ByRule[ruleKey(w)]++
		}
		if len(validation.Warnings) > 0 {
			result.Summary.Warnings++
		}

		if len(validation.Errors) > 0 {
			result.Summary.Rejected++
			result.Rejected = append(result.Rejected, raw)
			v.logger.Debug("Rejected screening",
				"title", raw.Title,
				"errors", validation.Errors)
			continue
		}

		// Dedup within the accepted set only
		if raw.SourceID != "" {
			if seenSourceIDs[raw.SourceID] {
				continue
			}
			seenSourceIDs[raw.SourceID] = true
		}

		result.Summary.Valid++
		result.Accepted = append(result.Accepted, raw)
	}

	return result
}

// ruleKey extracts the rule identifier from a violation message
func ruleKey(violation string) string {
	if idx := strings.Index(violation, ":"); idx > 0 {
		return violation[:idx]
	}
	return violation
}

// isFullClosureDate reports dates on which nearly every venue is shut
func isFullClosureDate(t time.Time) bool {
	return t.Month() == time.December && t.Day() == 25
}

// isPartialClosureDate reports dates many venues close early or fully:
// Christmas Eve, Boxing Day, New Year's Day
func isPartialClosureDate(t time.Time) bool {
	switch {
	case t.Month() == time.December && (t.Day() == 24 || t.Day() == 26):
		return true
	case t.Month() == time.January && t.Day() == 1:
		return true
	default:
		return false
	}
}
