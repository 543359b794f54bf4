package services

// RejectionReason — элемент справочника причин отклонения заявки.
type RejectionReason struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

const RejectionReasonOther = "other"

var rejectionReasons = []RejectionReason{
	{Code: "low_quality_photo", Label: "Low quality photo"},
	{Code: "inappropriate_photo", Label: "Inappropriate photo"},
	{Code: "incomplete_profile", Label: "Incomplete profile"},
	{Code: "fake_profile", Label: "Fake profile"},
	{Code: "underage", Label: "Underage applicant"},
	{Code: "duplicate_application", Label: "Duplicate application"},
	{Code: RejectionReasonOther, Label: "Other"},
}

func RejectionReasons() []RejectionReason {
	out := make([]RejectionReason, len(rejectionReasons))
	copy(out, rejectionReasons)
	return out
}

func IsKnownRejectionReason(code string) bool {
	for _, r := range rejectionReasons {
		if r.Code == code {
			return true
		}
	}
	return false
}

// normalizeRejectionReasons drops duplicates and keeps input order.
func normalizeRejectionReasons(codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, ErrRejectionReasonRequired
	}
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if !IsKnownRejectionReason(c) {
			return nil, ErrInvalidRejectionReason
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}
