package domain

const bytesPerMB = 1024 * 1024

// DefaultQuotaBytes is the advisory storage quota (5 MB).
const DefaultQuotaBytes int64 = 5 * bytesPerMB

// Usage reports storage consumption against the advisory quota.
type Usage struct {
	BytesInUse int64
	QuotaBytes int64
	Keys       int
}

// MBUsed returns BytesInUse in megabytes.
func (u Usage) MBUsed() float64 {
	return float64(u.BytesInUse) / bytesPerMB
}

// MaxMB returns the quota in megabytes.
func (u Usage) MaxMB() float64 {
	return float64(u.QuotaBytes) / bytesPerMB
}

// PercentUsed returns the share of the quota in use, 0 when no quota is set.
func (u Usage) PercentUsed() float64 {
	if u.QuotaBytes <= 0 {
		return 0
	}
	return float64(u.BytesInUse) / float64(u.QuotaBytes) * 100
}

// OverQuota reports whether usage has reached the quota.
func (u Usage) OverQuota() bool {
	return u.QuotaBytes > 0 && u.BytesInUse >= u.QuotaBytes
}
