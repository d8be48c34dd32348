// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package codec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sigurn/crc16"
)

// Checksum is a CRC-16 trailer appended after each transmitted payload
type Checksum struct {
	Name         string
	LittleEndian bool
	table        *crc16.Table
}

var checksums = map[string]*Checksum{
	"ccitt":  {Name: "ccitt", table: crc16.MakeTable(crc16.CRC16_CCITT_FALSE)},
	"xmodem": {Name: "xmodem", table: crc16.MakeTable(crc16.CRC16_XMODEM)},
	"modbus": {Name: "modbus", LittleEndian: true, table: crc16.MakeTable(crc16.CRC16_MODBUS)},
	"kermit": {Name: "kermit", LittleEndian: true, table: crc16.MakeTable(crc16.CRC16_KERMIT)},
}

// LookupChecksum returns the named checksum
func LookupChecksum(name string) (*Checksum, error) {
	c, ok := checksums[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown checksum %q (available: %s)", name, strings.Join(ChecksumNames(), ", "))
	}
	return c, nil
}

// ChecksumNames lists the available checksum names
func ChecksumNames() []string {
	names := make([]string, 0, len(checksums))
	for name := range checksums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sum computes the CRC-16 of data
func (c *Checksum) Sum(data []byte) uint16 {
	return crc16.Checksum(data, c.table)
}

// Trailer returns the two CRC bytes in wire order
func (c *Checksum) Trailer(data []byte) []byte {
	crc := c.Sum(data)
	if c.LittleEndian {
		return []byte{byte(crc & 0xFF), byte(crc >> 8)}
	}
	return []byte{byte(crc >> 8), byte(crc & 0xFF)}
}
