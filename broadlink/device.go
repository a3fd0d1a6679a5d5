// Package broadlink implements the small slice of the Broadlink LAN
// protocol this tool needs: the hello/auth handshake, entering IR
// learning mode and polling for a captured code. Payloads travel in
// UDP datagrams encrypted with AES-128-CBC; every fresh device ships
// with the same well known key pair until Auth negotiates a session
// key.
package broadlink

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"time"
)

var (
	// ErrPending means the device is in learning mode but has not
	// captured a code yet.
	ErrPending = errors.New("broadlink: no data available yet")
	// ErrStorage means the device reported a transient read problem.
	// Callers retry it exactly like ErrPending.
	ErrStorage = errors.New("broadlink: transient storage error")
)

var (
	initialKey = []byte{
		0x09, 0x76, 0x28, 0x34, 0x3f, 0xe9, 0x9e, 0x23,
		0x76, 0x5c, 0x15, 0x13, 0xac, 0xcf, 0x8b, 0x02,
	}
	initialIV = []byte{
		0x56, 0x2e, 0x17, 0x99, 0x6d, 0x09, 0x3d, 0x28,
		0xdd, 0xb3, 0xba, 0x69, 0x5a, 0x2e, 0x6f, 0x58,
	}
)

const (
	devicePort  = 80
	readTimeout = 5 * time.Second

	cmdHello   = 0x06
	cmdAuth    = 0x65
	cmdControl = 0x6a

	// Control payload opcodes.
	opEnterLearning = 0x03
	opCheckData     = 0x04

	// Firmware error codes the learning loop treats as transient.
	codeNoData  = 0xfff6
	codeStorage = 0xfff9
)

// Device is one transceiver connection. It is not safe for
// concurrent use; the learning workflow is strictly sequential.
type Device struct {
	conn    net.Conn
	addr    string
	kind    uint16
	mac     [6]byte
	id      [4]byte
	key     []byte
	counter uint16
}

// Hello locates the device at address (host or host:port) and reads
// its identity. The returned Device still needs Auth before any
// control command.
func Hello(address string) (*Device, error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = fmt.Sprintf("%s:%d", address, devicePort)
	}
	conn, err := net.Dial("udp", address)
	if err != nil {
		return nil, fmt.Errorf("broadlink: dial %s: %w", address, err)
	}

	packet := make([]byte, 0x30)
	packet[0x26] = cmdHello
	putChecksum(packet)

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	resp, err := exchange(conn, packet)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("broadlink: hello: %w", err)
	}
	if len(resp) < 0x40 {
		conn.Close()
		return nil, fmt.Errorf("broadlink: hello: short response (%d bytes)", len(resp))
	}

	d := &Device{
		conn: conn,
		addr: address,
		kind: uint16(resp[0x34]) | uint16(resp[0x35])<<8,
		key:  append([]byte(nil), initialKey...),
	}
	copy(d.mac[:], resp[0x3a:0x40])
	return d, nil
}

func (d *Device) String() string {
	return fmt.Sprintf("Broadlink device 0x%04x at %s (MAC %02x:%02x:%02x:%02x:%02x:%02x)",
		d.kind, d.addr, d.mac[5], d.mac[4], d.mac[3], d.mac[2], d.mac[1], d.mac[0])
}

// Auth negotiates the session key. Must be called once before
// EnterLearning or CheckData.
func (d *Device) Auth() error {
	payload := make([]byte, 0x50)
	if _, err := rand.Read(payload[0x04:0x13]); err != nil {
		return fmt.Errorf("broadlink: auth nonce: %w", err)
	}
	payload[0x1e] = 0x01
	payload[0x2d] = 0x01
	copy(payload[0x30:], "smartir-learn")

	resp, err := d.send(context.Background(), cmdAuth, payload)
	if err != nil {
		return fmt.Errorf("broadlink: auth: %w", err)
	}
	if len(resp) < 0x14 {
		return fmt.Errorf("broadlink: auth: short payload (%d bytes)", len(resp))
	}
	copy(d.id[:], resp[0x00:0x04])
	d.key = append([]byte(nil), resp[0x04:0x14]...)
	return nil
}

// EnterLearning puts the device into IR listening mode. It may be
// called once per code to capture.
func (d *Device) EnterLearning(ctx context.Context) error {
	payload := make([]byte, 16)
	payload[0] = opEnterLearning
	if _, err := d.send(ctx, cmdControl, payload); err != nil {
		return fmt.Errorf("broadlink: enter learning: %w", err)
	}
	return nil
}

// CheckData polls for a captured code. It returns the raw code bytes,
// ErrPending while nothing arrived yet, or ErrStorage on a transient
// read problem.
func (d *Device) CheckData(ctx context.Context) ([]byte, error) {
	payload := make([]byte, 16)
	payload[0] = opCheckData
	resp, err := d.send(ctx, cmdControl, payload)
	if err != nil {
		return nil, err
	}
	if len(resp) < 0x04 {
		return nil, fmt.Errorf("broadlink: check data: short payload (%d bytes)", len(resp))
	}
	return resp[0x04:], nil
}

// send wraps payload in a control packet, encrypts it, performs one
// request/response round trip and returns the decrypted response
// payload.
func (d *Device) send(ctx context.Context, command byte, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.counter++

	header := make([]byte, 0x38)
	copy(header, []byte{0x5a, 0xa5, 0xaa, 0x55, 0x5a, 0xa5, 0xaa, 0x55})
	header[0x24] = byte(d.kind)
	header[0x25] = byte(d.kind >> 8)
	header[0x26] = command
	header[0x28] = byte(d.counter)
	header[0x29] = byte(d.counter >> 8)
	copy(header[0x2a:0x30], d.mac[:])
	copy(header[0x30:0x34], d.id[:])

	sum := checksum(payload)
	header[0x34] = byte(sum)
	header[0x35] = byte(sum >> 8)

	sealed, err := d.encrypt(payload)
	if err != nil {
		return nil, err
	}
	packet := append(header, sealed...)
	putChecksum(packet)

	if deadline, ok := ctx.Deadline(); ok {
		d.conn.SetReadDeadline(deadline)
	} else {
		d.conn.SetReadDeadline(time.Now().Add(readTimeout))
	}
	resp, err := exchange(d.conn, packet)
	if err != nil {
		return nil, err
	}
	if len(resp) < 0x38 {
		return nil, fmt.Errorf("broadlink: short response (%d bytes)", len(resp))
	}

	switch code := uint16(resp[0x22]) | uint16(resp[0x23])<<8; code {
	case 0:
	case codeNoData:
		return nil, ErrPending
	case codeStorage:
		return nil, ErrStorage
	default:
		return nil, fmt.Errorf("broadlink: device error 0x%04x", code)
	}
	return d.decrypt(resp[0x38:])
}

func (d *Device) encrypt(payload []byte) ([]byte, error) {
	block, err := aes.NewCipher(d.key)
	if err != nil {
		return nil, err
	}
	padded := pad(payload, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, initialIV).CryptBlocks(out, padded)
	return out, nil
}

func (d *Device) decrypt(sealed []byte) ([]byte, error) {
	if len(sealed)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("broadlink: payload not block aligned (%d bytes)", len(sealed))
	}
	block, err := aes.NewCipher(d.key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(sealed))
	cipher.NewCBCDecrypter(block, initialIV).CryptBlocks(out, sealed)
	return out, nil
}

// Close releases the UDP socket.
func (d *Device) Close() error {
	return d.conn.Close()
}

func exchange(conn net.Conn, packet []byte) ([]byte, error) {
	if _, err := conn.Write(packet); err != nil {
		return nil, err
	}
	buf := make([]byte, 2048)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// checksum is the protocol's 16 bit sum, seeded with 0xbeaf.
func checksum(data []byte) uint16 {
	sum := uint16(0xbeaf)
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// putChecksum writes the whole-packet checksum at offset 0x20, which
// must be zero while summing.
func putChecksum(packet []byte) {
	packet[0x20] = 0
	packet[0x21] = 0
	sum := checksum(packet)
	packet[0x20] = byte(sum)
	packet[0x21] = byte(sum >> 8)
}

func pad(data []byte, blockSize int) []byte {
	if rem := len(data) % blockSize; rem != 0 {
		return append(append([]byte(nil), data...), bytes.Repeat([]byte{0}, blockSize-rem)...)
	}
	return data
}
