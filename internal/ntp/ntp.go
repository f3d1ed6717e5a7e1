package ntp

type ShortEncoded = uint32

type Mode byte

const (
	RESERVED Mode = iota
	SYMMETRIC_ACTIVE
	SYMMETRIC_PASSIVE
	CLIENT
	SERVER
	BROADCAST_SERVER
	BROADCAST_CLIENT
	RESERVED_PRIVATE_USE
)

func (m Mode) String() string {
	switch m {
	case SYMMETRIC_ACTIVE:
		return "symmetric-active"
	case SYMMETRIC_PASSIVE:
		return "symmetric-passive"
	case CLIENT:
		return "client"
	case SERVER:
		return "server"
	case BROADCAST_SERVER:
		return "broadcast"
	case BROADCAST_CLIENT:
		return "broadcast-client"
	case RESERVED_PRIVATE_USE:
		return "private"
	default:
		return "reserved"
	}
}

type LeapIndicator byte

const (
	LeapNone LeapIndicator = iota
	LeapAddSecond
	LeapDelSecond
	LeapNotInSync // clock unsynchronized (alarm)
)

const (
	Port = "123" // NTP port number

	VERSION    byte = 4 // NTP version number
	MINVERSION byte = 1

	MAXSTRAT byte = 16 // maximum stratum number, unsynchronized

	PacketSize = 48
)
