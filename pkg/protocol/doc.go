// Package protocol implements the binary wire format between a weft
// runtime and a remote live tree.
//
// Patches flow from the server to the client and describe how to bring
// the client's tree in line with the latest render. Events flow the other
// way and name the listener that fired by its path and event name.
//
// # Wire Format
//
// Every message is carried in frames with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// Messages longer than MaxPayloadSize are cut by Split and joined again
// by an Assembler.
//
// # Frame Types
//
//   - FrameEvent (0x01): client → server events
//   - FramePatch (0x02): server → client patches
//   - FrameControl (0x03): ping, pong and close
//   - FrameError (0x05): error reports
//
// # Encoding
//
//   - Varint: unsigned integers, protobuf style
//   - ZigZag: signed integers as unsigned varints
//   - Length-prefixed: strings prefixed with a varint length
//   - Tagged values: DOM properties and event fields carry a type byte
//
// Decoding never trusts a length prefix: strings are capped at
// MaxAllocation, lists at MaxCollectionCount, and node and patch trees at
// MaxNodeDepth and MaxPatchDepth.
package protocol
