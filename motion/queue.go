package motion

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"
)

// Queue selects one of the two timestamp queues kept by the firmware.
type Queue int

const (
	Detected Queue = iota
	Removed
)

func (q Queue) String() string {
	switch q {
	case Detected:
		return "detected"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("queue(%d)", int(q))
	}
}

type queueRegs struct {
	status byte
	front  byte
	back   byte
}

var queueMap = map[Queue]queueRegs{
	Detected: {RegDetectedQueueStatus, RegDetectedQueueFront, RegDetectedQueueBack},
	Removed:  {RegRemovedQueueStatus, RegRemovedQueueFront, RegRemovedQueueBack},
}

func (q Queue) regs() (queueRegs, error) {
	r, ok := queueMap[q]
	if !ok {
		return queueRegs{}, fmt.Errorf("qwiic pir: unknown queue %d", int(q))
	}
	return r, nil
}

func (s *QwiicPIR) queueStatus(ctx context.Context, q Queue) (byte, error) {
	r, err := q.regs()
	if err != nil {
		return 0x00, err
	}
	b, err := s.transport.ReadReg(ctx, s.address, r.status)
	if err != nil {
		return 0x00, fmt.Errorf("qwiic pir: could not read %s queue status: %w", q, err)
	}
	return b, nil
}

func (s *QwiicPIR) QueueFull(ctx context.Context, q Queue) (bool, error) {
	b, err := s.queueStatus(ctx, q)
	if err != nil {
		return false, err
	}
	return b&QueueIsFull != 0, nil
}

func (s *QwiicPIR) QueueEmpty(ctx context.Context, q Queue) (bool, error) {
	b, err := s.queueStatus(ctx, q)
	if err != nil {
		return false, err
	}
	return b&QueueIsEmpty != 0, nil
}

func (s *QwiicPIR) readTimestamp(ctx context.Context, q Queue, reg byte) (time.Duration, error) {
	buf := make([]byte, 4)
	err := s.transport.ReadRegBlock(ctx, s.address, reg, buf)
	if err != nil {
		return 0, fmt.Errorf("qwiic pir: could not read %s queue entry: %w", q, err)
	}
	return time.Duration(binary.LittleEndian.Uint32(buf)) * time.Millisecond, nil
}

// TimeSinceLast returns the age of the most recent entry in the queue.
func (s *QwiicPIR) TimeSinceLast(ctx context.Context, q Queue) (time.Duration, error) {
	r, err := q.regs()
	if err != nil {
		return 0, err
	}
	return s.readTimestamp(ctx, q, r.front)
}

// TimeSinceFirst returns the age of the oldest entry in the queue.
func (s *QwiicPIR) TimeSinceFirst(ctx context.Context, q Queue) (time.Duration, error) {
	r, err := q.regs()
	if err != nil {
		return 0, err
	}
	return s.readTimestamp(ctx, q, r.back)
}

// PopQueue returns the age of the oldest entry and asks the device to drop it.
func (s *QwiicPIR) PopQueue(ctx context.Context, q Queue) (time.Duration, error) {
	r, err := q.regs()
	if err != nil {
		return 0, err
	}
	age, err := s.readTimestamp(ctx, q, r.back)
	if err != nil {
		return 0, err
	}
	status, err := s.queueStatus(ctx, q)
	if err != nil {
		return 0, err
	}
	err = s.transport.WriteReg(ctx, s.address, r.status, status|QueuePopRequest)
	if err != nil {
		return 0, fmt.Errorf("qwiic pir: could not pop %s queue: %w", q, err)
	}
	return age, nil
}
