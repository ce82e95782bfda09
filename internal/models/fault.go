package models

// FaultClass is the coarse category of a playback fault.
type FaultClass string

const (
	FaultNetwork FaultClass = "network"
	FaultMedia   FaultClass = "media"
	FaultFatal   FaultClass = "fatal"
)

// Media fault details with dedicated handling. Any other detail string
// falls through to generic media recovery.
const (
	MediaBufferAppend  = "buffer-append"
	MediaBufferStalled = "buffer-stalled"
)

// FaultDescriptor is one playback fault reported by the player.
type FaultDescriptor struct {
	// Class is the fault category.
	Class FaultClass `json:"class"`

	// Detail refines the class, e.g. a media fault's buffer condition.
	Detail string `json:"detail,omitempty"`
}

// Valid reports whether the class is one of the known categories.
func (f FaultDescriptor) Valid() bool {
	switch f.Class {
	case FaultNetwork, FaultMedia, FaultFatal:
		return true
	}
	return false
}
