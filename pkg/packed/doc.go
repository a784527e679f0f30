// Package packed exchanges packed records over a serial link.
package packed

// A record is packed by a varstruct.FieldSpec, encoded with COBS and
// terminated by a 0x00 byte on the wire. The link has no retransmission
// or bit error detection: a corrupted frame is reported and dropped, and
// the stream resynchronizes on the next delimiter.
//
// Producer: firmware (PackedSerial)
// Consumer: host
