package services

import (
	"math"
	"testing"

	"ktrek/internal/models"

	"github.com/stretchr/testify/assert"
)

func checkinTask() *models.Task {
	lat := 3.1390
	lng := 101.6869
	secret := "kt-petronas-001"
	return &models.Task{
		ID:             1,
		Type:           models.TaskTypeCheckin,
		Category:       "landmark",
		Latitude:       &lat,
		Longitude:      &lng,
		AllowedRadiusM: 50,
		QRSecret:       &secret,
	}
}

func gpsProof(lat, lng, accuracy float64) *models.CheckinProof {
	return &models.CheckinProof{Latitude: &lat, Longitude: &lng, AccuracyM: &accuracy}
}

func TestVerifyQRProof(t *testing.T) {
	task := checkinTask()

	token := "kt-petronas-001"
	result := VerifyProof(task, &models.CheckinProof{QRToken: &token}, DEFAULT_GPS_MAX_ACCURACY_M)
	assert.True(t, result.OK)
	assert.Equal(t, models.ReasonOK, result.Reason)

	wrong := "kt-petronas-999"
	result = VerifyProof(task, &models.CheckinProof{QRToken: &wrong}, DEFAULT_GPS_MAX_ACCURACY_M)
	assert.False(t, result.OK)
	assert.Equal(t, models.ReasonInvalidProof, result.Reason)
	assert.Equal(t, ErrInvalidProof, VerificationError(result))
}

func TestVerifyGPSProofAtTarget(t *testing.T) {
	result := VerifyProof(checkinTask(), gpsProof(3.1390, 101.6869, 20), DEFAULT_GPS_MAX_ACCURACY_M)
	assert.True(t, result.OK)
	assert.NotNil(t, result.DistanceM)
	assert.InDelta(t, 0, *result.DistanceM, 0.001)
}

func TestVerifyGPSProofOutOfRange(t *testing.T) {
	// ~200m north of the target, radius is 50m
	result := VerifyProof(checkinTask(), gpsProof(3.1390+200.0/111195.0, 101.6869, 20), DEFAULT_GPS_MAX_ACCURACY_M)
	assert.False(t, result.OK)
	assert.Equal(t, models.ReasonOutOfRange, result.Reason)
	assert.NotNil(t, result.DistanceM)
	assert.InDelta(t, 200, *result.DistanceM, 2)
	assert.Equal(t, ErrOutOfRange, VerificationError(result))
}

func TestVerifyGPSProofInsufficientAccuracy(t *testing.T) {
	result := VerifyProof(checkinTask(), gpsProof(3.1390, 101.6869, 300), DEFAULT_GPS_MAX_ACCURACY_M)
	assert.False(t, result.OK)
	assert.Equal(t, models.ReasonInsufficientAccuracy, result.Reason)
	assert.Equal(t, ErrInsufficientAccuracy, VerificationError(result))
}

func TestVerifyGPSProofNaNCoordinates(t *testing.T) {
	result := VerifyProof(checkinTask(), gpsProof(math.NaN(), 101.6869, 20), DEFAULT_GPS_MAX_ACCURACY_M)
	assert.False(t, result.OK)
	assert.Equal(t, models.ReasonInvalidProof, result.Reason)
}

func TestVerifyTypeMismatch(t *testing.T) {
	task := checkinTask()
	task.Type = models.TaskTypeQuiz

	token := "kt-petronas-001"
	result := VerifyProof(task, &models.CheckinProof{QRToken: &token}, DEFAULT_GPS_MAX_ACCURACY_M)
	assert.False(t, result.OK)
	assert.Equal(t, models.ReasonTypeMismatch, result.Reason)
	assert.Equal(t, ErrTypeMismatch, VerificationError(result))
}

func TestVerifyMissingProof(t *testing.T) {
	result := VerifyProof(checkinTask(), &models.CheckinProof{}, DEFAULT_GPS_MAX_ACCURACY_M)
	assert.False(t, result.OK)
	assert.Equal(t, models.ReasonInvalidProof, result.Reason)
}
