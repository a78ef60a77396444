package services

import (
	"ktrek/internal/models"
	"ktrek/internal/pkg/geo"
)

// VerifyProof decides whether one check-in attempt satisfies a task's proof
// requirements. Pure function over its inputs; persisting the outcome is the
// caller's job.
func VerifyProof(task *models.Task, proof *models.CheckinProof, maxAccuracyM float64) *models.VerificationResult {
	if task.Type != models.TaskTypeCheckin {
		return &models.VerificationResult{Reason: models.ReasonTypeMismatch}
	}

	if proof.IsQR() {
		return verifyQRProof(task, proof)
	}

	if proof.IsGPS() {
		return verifyGPSProof(task, proof, maxAccuracyM)
	}

	return &models.VerificationResult{Reason: models.ReasonInvalidProof}
}

func verifyQRProof(task *models.Task, proof *models.CheckinProof) *models.VerificationResult {
	if task.QRSecret == nil || *proof.QRToken == "" || *proof.QRToken != *task.QRSecret {
		return &models.VerificationResult{Reason: models.ReasonInvalidProof}
	}

	return &models.VerificationResult{OK: true, Reason: models.ReasonOK}
}

func verifyGPSProof(task *models.Task, proof *models.CheckinProof, maxAccuracyM float64) *models.VerificationResult {
	if !task.HasCoordinates() || !geo.ValidCoordinates(*proof.Latitude, *proof.Longitude) {
		return &models.VerificationResult{Reason: models.ReasonInvalidProof}
	}

	if proof.AccuracyM != nil && *proof.AccuracyM > maxAccuracyM {
		return &models.VerificationResult{
			Reason:    models.ReasonInsufficientAccuracy,
			AccuracyM: proof.AccuracyM,
		}
	}

	distance := geo.DistanceM(*proof.Latitude, *proof.Longitude, *task.Latitude, *task.Longitude)
	result := &models.VerificationResult{
		DistanceM: &distance,
		AccuracyM: proof.AccuracyM,
	}

	if distance > task.AllowedRadiusM {
		result.Reason = models.ReasonOutOfRange
		return result
	}

	result.OK = true
	result.Reason = models.ReasonOK
	return result
}

// VerificationError maps a failed verification to its sentinel error.
func VerificationError(result *models.VerificationResult) error {
	switch result.Reason {
	case models.ReasonTypeMismatch:
		return ErrTypeMismatch
	case models.ReasonInsufficientAccuracy:
		return ErrInsufficientAccuracy
	case models.ReasonOutOfRange:
		return ErrOutOfRange
	case models.ReasonInvalidProof:
		return ErrInvalidProof
	}
	return nil
}
