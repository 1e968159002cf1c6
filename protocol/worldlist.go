package protocol

import (
	"github.com/ironspire/coreserver/wire"
)

// Country is one entry of a full WorldList update's country table.
type Country struct {
	Flag uint16
	Name string
}

// World is one entry of a WorldList update. ID must be unique and the
// slice passed to EncodeWorldList must be sorted ascending by ID, since
// ids are delta-encoded relative to the previous entry.
type World struct {
	ID          uint16
	Location    uint8
	Flags       uint32
	Activity    string
	Hostname    string
	SessionID   uint32
	PlayerCount uint16
}

// WorldListPayload is everything EncodeWorldList needs to build one
// response frame.
type WorldListPayload struct {
	FullUpdate bool
	Countries  []Country // only emitted when FullUpdate
	Worlds     []World
}

// EncodeWorldList builds the full WorldList response frame: a 0x00 framing
// byte, a u16 BE payload length, then the payload itself. Grounded on
// original_source/net/src/response.rs's WorldListEncoder::encode,
// generalized from its single-country/single-world example to the
// general country/world tables spec.md describes.
func EncodeWorldList(p WorldListPayload) []byte {
	body := wire.NewWriter(128)
	body.WriteU8(1)
	if p.FullUpdate {
		body.WriteU8(1)
	} else {
		body.WriteU8(0)
	}

	if p.FullUpdate {
		body.WriteSmart(uint16(len(p.Countries)))
		for _, c := range p.Countries {
			body.WriteSmart(c.Flag)
			body.WriteJagString(c.Name)
		}

		minID, maxID := worldIDRange(p.Worlds)
		body.WriteSmart(minID)
		body.WriteSmart(maxID + 1)
		body.WriteSmart(uint16(len(p.Worlds)))

		var accumulator uint16
		for _, w := range p.Worlds {
			body.WriteSmart(w.ID - accumulator)
			accumulator = w.ID
			body.WriteU8(w.Location)
			body.WriteU32(w.Flags)
			body.WriteJagString(w.Activity)
			body.WriteJagString(w.Hostname)
			body.WriteU32(w.SessionID)
		}
	}

	body.WriteSmart(uint16(len(p.Worlds)))
	var accumulator uint16
	for _, w := range p.Worlds {
		body.WriteSmart(w.ID - accumulator)
		accumulator = w.ID
		body.WriteU16(w.PlayerCount)
	}

	out := wire.NewWriter(3 + body.Len())
	out.WriteU8(0)
	out.WriteU16(uint16(body.Len()))
	out.WriteBytes(body.Bytes())
	return out.Bytes()
}

func worldIDRange(worlds []World) (min, max uint16) {
	if len(worlds) == 0 {
		return 0, 0
	}
	min, max = worlds[0].ID, worlds[0].ID
	for _, w := range worlds[1:] {
		if w.ID < min {
			min = w.ID
		}
		if w.ID > max {
			max = w.ID
		}
	}
	return min, max
}
