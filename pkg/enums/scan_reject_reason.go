package enums

// ScanRejectReason explains why a scan submission was not accepted. Rejections
// are non-fatal; the scanning operator keeps the session open.
type ScanRejectReason string

const (
	ScanRejectDuplicate    ScanRejectReason = "duplicate"
	ScanRejectNotFound     ScanRejectReason = "not_found"
	ScanRejectInvalidState ScanRejectReason = "invalid_state"
)

// String implements fmt.Stringer.
func (r ScanRejectReason) String() string {
	return string(r)
}
