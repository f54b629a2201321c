package ymodem

func (r *Receiver) awaitHeader(c byte) action {
	switch c {
	case SOH, STX:
		r.packetLen = packetSize
		if c == STX {
			r.packetLen = packetSize1K
		}
		r.idx = 0
		r.crc = 0
		r.crcLow = false
		r.repeated = false
		r.process = r.awaitSeq

	case EOT:
		r.end(true, nil)

	case CAN:
		r.process = r.awaitCancel

	default:
		return actionPurge
	}

	return actionNone
}

// awaitSeq accepts the expected packet number, or the previous one once a packet was accepted.
func (r *Receiver) awaitSeq(c byte) action {
	if c != r.packetNum && !(r.accepted && c == r.packetNum-1) {
		return actionPurge
	}
	r.seq = c
	r.process = r.awaitSeqComplement

	return actionNone
}

func (r *Receiver) awaitSeqComplement(c byte) action {
	if c != ^r.seq {
		return actionPurge
	}
	r.repeated = r.seq != r.packetNum
	r.process = r.awaitPayload

	return actionNone
}

func (r *Receiver) awaitPayload(c byte) action {
	r.payload[r.idx] = c
	r.idx++
	if r.idx == r.packetLen {
		r.process = r.awaitCRC
	}

	return actionNone
}

// awaitCRC reads the big endian CRC and acts on a valid packet.
func (r *Receiver) awaitCRC(c byte) action {
	if !r.crcLow {
		r.crc = uint16(c) << 8
		r.crcLow = true

		return actionNone
	}

	r.crc |= uint16(c)
	r.process = r.awaitHeader

	data := r.payload[:r.packetLen]
	if checksum(data) != r.crc {
		return actionPurge
	}
	r.metrics.incPacketsReceived()

	if r.repeated {
		r.metrics.incPacketsRepeated()
		return actionACK
	}

	if r.packetNum == 0 {
		return r.openFile(data)
	}

	return r.writePacket(data)
}

func (r *Receiver) openFile(data []byte) action {
	h, err := ParseHeader(data)
	if err != nil {
		return actionPurge
	}
	if h.Name == "" {
		return actionNoFile
	}

	r.header = h
	r.packetNum++
	r.accepted = true

	f, err := r.fs.Create(h.Name)
	if err != nil {
		r.err = ErrCreateFailed
		r.logger.Warn("create failed", "name", h.Name, "error", err)

		return actionCAN
	}
	r.file = f
	r.logger.Info("receiving file", "name", h.Name, "size", h.Size)

	return actionACKFile
}

func (r *Receiver) writePacket(data []byte) action {
	r.packetNum++
	r.received += int64(len(data))

	completed := r.header.Size > 0 && r.received >= r.header.Size
	if completed {
		data = data[:int64(len(data))-(r.received-r.header.Size)]
	}

	n, err := r.file.Write(data)
	r.written += int64(n)
	r.metrics.addBytesWritten(n)
	if err != nil || n != len(data) {
		r.err = ErrWriteFailed
		r.logger.Warn("write failed", "name", r.header.Name, "error", err)

		return actionCAN
	}

	if completed {
		r.process = r.awaitEOT
	}

	return actionACK
}

func (r *Receiver) awaitEOT(c byte) action {
	if c == EOT {
		r.end(true, nil)
	}

	return actionNone
}

func (r *Receiver) awaitCancel(c byte) action {
	if c == CAN {
		r.end(false, ErrCancelled)
	} else {
		r.process = r.awaitHeader
	}

	return actionNone
}

// purge sinks input until the next timeout.
func (*Receiver) purge(byte) action {
	return actionNone
}
