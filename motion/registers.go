package motion

// DefaultAddress is the factory I2C address of the Qwiic PIR.
const DefaultAddress = 0x12

// DeviceID is the value of the ID register.
const DeviceID = 0x72

// Register map
const (
	RegID                  byte = 0x00
	RegFirmwareMinor       byte = 0x01
	RegFirmwareMajor       byte = 0x02
	RegEventStatus         byte = 0x03
	RegInterruptConfig     byte = 0x04
	RegEventDebounceTime   byte = 0x05 // low byte, high byte at 0x06
	RegDetectedQueueStatus byte = 0x07
	RegDetectedQueueFront  byte = 0x08 // uint32 LE
	RegDetectedQueueBack   byte = 0x0C // uint32 LE
	RegRemovedQueueStatus  byte = 0x10
	RegRemovedQueueFront   byte = 0x11 // uint32 LE
	RegRemovedQueueBack    byte = 0x15 // uint32 LE
	RegI2CAddress          byte = 0x19
)

// EVENT_STATUS bits
const (
	StatusRawReading     byte = 1 << 0
	StatusEventAvailable byte = 1 << 1
	StatusObjectRemoved  byte = 1 << 2
	StatusObjectDetected byte = 1 << 3

	statusEventMask = StatusEventAvailable | StatusObjectRemoved | StatusObjectDetected
)

// INTERRUPT_CONFIG bits
const InterruptEnable byte = 1 << 0

// *_QUEUE_STATUS bits
const (
	QueuePopRequest byte = 1 << 0
	QueueIsEmpty    byte = 1 << 1
	QueueIsFull     byte = 1 << 2
)

// Valid range for a reprogrammed 7-bit address.
const (
	MinAddress = 0x08
	MaxAddress = 0x77
)
