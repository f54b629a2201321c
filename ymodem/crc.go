package ymodem

import "github.com/sigurn/crc16"

var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// checksum returns the CRC-16/XMODEM of b.
func checksum(b []byte) uint16 {
	return crc16.Checksum(b, crcTable)
}
