package transport

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/goburrow/serial"
	"github.com/tbrandon/mbserver"
	"go.uber.org/zap"
)

// Modbus function codes handled per slave.
const (
	fcReadCoils              = 1
	fcReadDiscreteInputs     = 2
	fcReadHoldingRegisters   = 3
	fcReadInputRegisters     = 4
	fcWriteSingleRegister    = 6
	fcWriteMultipleRegisters = 16
)

// modbusEngine serves the Modbus protocol through the mbserver library,
// routing each request to the datastore of the addressed slave. Requests
// for slave ids outside the endpoint's device map are rejected.
type modbusEngine struct {
	cfg    Config
	slaves map[uint8]*SlaveDatastore
	logger *zap.Logger

	mu     sync.Mutex
	server *mbserver.Server
	active bool
}

// NewModbusEngine is the production EngineFactory.
func NewModbusEngine(cfg Config, slaves map[uint8]*SlaveDatastore, logger *zap.Logger) Engine {
	return &modbusEngine{
		cfg:    cfg,
		slaves: slaves,
		logger: logger,
	}
}

func (e *modbusEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active {
		return nil
	}

	srv := mbserver.NewServer()
	srv.RegisterFunctionHandler(fcReadCoils, e.handleReadCoils)
	srv.RegisterFunctionHandler(fcReadDiscreteInputs, e.handleReadDiscreteInputs)
	srv.RegisterFunctionHandler(fcReadHoldingRegisters, e.handleReadHolding)
	srv.RegisterFunctionHandler(fcReadInputRegisters, e.handleReadInput)
	srv.RegisterFunctionHandler(fcWriteSingleRegister, e.handleWriteSingle)
	srv.RegisterFunctionHandler(fcWriteMultipleRegisters, e.handleWriteMultiple)

	var err error
	switch e.cfg.Kind {
	case KindTCP:
		err = srv.ListenTCP(e.cfg.BindTarget())
	case KindRTU:
		err = srv.ListenRTU(&serial.Config{
			Address:  e.cfg.SerialPort,
			BaudRate: e.cfg.BaudRate,
			DataBits: e.cfg.DataBits,
			StopBits: e.cfg.StopBits,
			Parity:   e.cfg.Parity,
			Timeout:  e.cfg.Timeout,
		})
	default:
		err = fmt.Errorf("unsupported transport kind %q", e.cfg.Kind)
	}
	if err != nil {
		srv.Close()
		return err
	}

	e.server = srv
	e.active = true
	return nil
}

func (e *modbusEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return nil
	}
	e.server.Close()
	e.server = nil
	e.active = false
	return nil
}

func (e *modbusEngine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// slaveFor resolves the addressed slave from the frame. The unit id lives in
// different fields for TCP and RTU frames.
func (e *modbusEngine) slaveFor(frame mbserver.Framer) (*SlaveDatastore, bool) {
	var unitID uint8
	switch f := frame.(type) {
	case *mbserver.TCPFrame:
		unitID = f.Device
	case *mbserver.RTUFrame:
		unitID = f.Address
	default:
		return nil, false
	}
	ds, ok := e.slaves[unitID]
	return ds, ok
}

func (e *modbusEngine) handleReadHolding(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	ds, ok := e.slaveFor(frame)
	if !ok {
		return nil, &mbserver.SlaveDeviceFailure
	}
	start, quantity, ok := readRange(frame)
	if !ok {
		return nil, &mbserver.IllegalDataValue
	}
	values, err := ds.ReadHolding(start, quantity)
	if err != nil {
		return nil, &mbserver.IllegalDataAddress
	}
	return append([]byte{byte(len(values) * 2)}, mbserver.Uint16ToBytes(values)...), &mbserver.Success
}

func (e *modbusEngine) handleReadInput(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	ds, ok := e.slaveFor(frame)
	if !ok {
		return nil, &mbserver.SlaveDeviceFailure
	}
	start, quantity, ok := readRange(frame)
	if !ok {
		return nil, &mbserver.IllegalDataValue
	}
	values, err := ds.ReadInput(start, quantity)
	if err != nil {
		return nil, &mbserver.IllegalDataAddress
	}
	return append([]byte{byte(len(values) * 2)}, mbserver.Uint16ToBytes(values)...), &mbserver.Success
}

func (e *modbusEngine) handleReadCoils(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	ds, ok := e.slaveFor(frame)
	if !ok {
		return nil, &mbserver.SlaveDeviceFailure
	}
	start, quantity, ok := readRange(frame)
	if !ok {
		return nil, &mbserver.IllegalDataValue
	}
	bits, err := ds.ReadCoils(start, quantity)
	if err != nil {
		return nil, &mbserver.IllegalDataAddress
	}
	return packBits(bits), &mbserver.Success
}

func (e *modbusEngine) handleReadDiscreteInputs(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	ds, ok := e.slaveFor(frame)
	if !ok {
		return nil, &mbserver.SlaveDeviceFailure
	}
	start, quantity, ok := readRange(frame)
	if !ok {
		return nil, &mbserver.IllegalDataValue
	}
	bits, err := ds.ReadDiscreteInputs(start, quantity)
	if err != nil {
		return nil, &mbserver.IllegalDataAddress
	}
	return packBits(bits), &mbserver.Success
}

func (e *modbusEngine) handleWriteSingle(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	ds, ok := e.slaveFor(frame)
	if !ok {
		return nil, &mbserver.SlaveDeviceFailure
	}
	data := frame.GetData()
	if len(data) < 4 {
		return nil, &mbserver.IllegalDataValue
	}
	address := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])
	if err := ds.WriteHolding(address, value); err != nil {
		return nil, &mbserver.IllegalDataAddress
	}
	// Echo address and value per the protocol.
	return data[0:4], &mbserver.Success
}

func (e *modbusEngine) handleWriteMultiple(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	ds, ok := e.slaveFor(frame)
	if !ok {
		return nil, &mbserver.SlaveDeviceFailure
	}
	data := frame.GetData()
	if len(data) < 5 {
		return nil, &mbserver.IllegalDataValue
	}
	start := binary.BigEndian.Uint16(data[0:2])
	quantity := binary.BigEndian.Uint16(data[2:4])
	byteCount := int(data[4])
	if len(data) < 5+byteCount || int(quantity)*2 != byteCount {
		return nil, &mbserver.IllegalDataValue
	}

	values := mbserver.BytesToUint16(data[5 : 5+byteCount])
	// Validate the whole range first so a partial write cannot happen.
	if _, err := ds.ReadHolding(start, quantity); err != nil {
		return nil, &mbserver.IllegalDataAddress
	}
	for i, value := range values {
		if err := ds.WriteHolding(start+uint16(i), value); err != nil {
			return nil, &mbserver.IllegalDataAddress
		}
	}
	return data[0:4], &mbserver.Success
}

func readRange(frame mbserver.Framer) (start, quantity uint16, ok bool) {
	data := frame.GetData()
	if len(data) < 4 {
		return 0, 0, false
	}
	start = binary.BigEndian.Uint16(data[0:2])
	quantity = binary.BigEndian.Uint16(data[2:4])
	if quantity == 0 || quantity > 125 {
		return 0, 0, false
	}
	return start, quantity, true
}

func packBits(bits []bool) []byte {
	byteCount := (len(bits) + 7) / 8
	result := make([]byte, 1+byteCount)
	result[0] = byte(byteCount)
	for i, bit := range bits {
		if bit {
			result[1+i/8] |= 1 << (i % 8)
		}
	}
	return result
}
