package domain

// RecordType names one per-domain collection of stored records.
type RecordType string

const (
	RecordTypeHighlights RecordType = "highlights"
	RecordTypeNotes      RecordType = "notes"
)

func (t RecordType) String() string { return string(t) }

func (t RecordType) IsValid() bool {
	switch t {
	case RecordTypeHighlights, RecordTypeNotes:
		return true
	}
	return false
}

// RecordTypes lists every record type in sweep order.
func RecordTypes() []RecordType {
	return []RecordType{RecordTypeHighlights, RecordTypeNotes}
}

// TooltipKind is the discriminator of a tooltip state.
type TooltipKind string

const (
	TooltipHidden  TooltipKind = "hidden"
	TooltipLoading TooltipKind = "loading"
	TooltipShown   TooltipKind = "shown"
	TooltipError   TooltipKind = "error"
)

func (k TooltipKind) String() string { return string(k) }
