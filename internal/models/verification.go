package models

type VerificationReason string

const (
	ReasonOK                   VerificationReason = "ok"
	ReasonInvalidProof         VerificationReason = "invalid_proof"
	ReasonInsufficientAccuracy VerificationReason = "insufficient_accuracy"
	ReasonOutOfRange           VerificationReason = "out_of_range"
	ReasonTypeMismatch         VerificationReason = "type_mismatch"
)

// CheckinProof is what a client submits for one attempt: either a scanned QR
// token or a GPS fix, never both.
type CheckinProof struct {
	QRToken   *string  `json:"qr_token,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	AccuracyM *float64 `json:"accuracy,omitempty"`
}

func (proof *CheckinProof) IsQR() bool {
	return proof.QRToken != nil
}

func (proof *CheckinProof) IsGPS() bool {
	return proof.Latitude != nil && proof.Longitude != nil
}

// VerificationResult carries enough detail for the client to retry
// intelligently, e.g. the measured distance on an out-of-range attempt.
type VerificationResult struct {
	OK        bool               `json:"ok"`
	Reason    VerificationReason `json:"reason"`
	DistanceM *float64           `json:"distance_m,omitempty"`
	AccuracyM *float64           `json:"accuracy_m,omitempty"`
}

// CheckinResult is the full outcome of a check-in: the verification, the
// recorded completion and every reward the completion newly unlocked.
type CheckinResult struct {
	Verification *VerificationResult `json:"verification"`
	Completion   *TaskCompletion     `json:"completion,omitempty"`
	NewRewards   []UserReward        `json:"new_rewards"`
	Stats        *UserStats          `json:"stats,omitempty"`
}
