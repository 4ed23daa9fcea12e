package quivc

import (
	"crypto/tls"
	"net"
	"testing"

	"github.com/quivc/quivc/internal/handshake"
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/wire"

	"github.com/stretchr/testify/require"
)

// fakeEngine is a scriptable handshake engine.
type fakeEngine struct {
	pers protocol.Perspective

	completed         bool
	completeOnCrypto  bool
	versionNegotiated bool
	hasRemoteTP       bool
	localTP           *handshake.TransportParameters
	remoteTP          *handshake.TransportParameters
	level             protocol.EncryptionLevel
	alpn              string

	cryptoOut map[protocol.EncryptionLevel][]byte

	sealers map[protocol.EncryptionLevel]handshake.Sealer
	openers map[protocol.EncryptionLevel]handshake.Opener
	keyCID  protocol.ConnectionID

	starts, resets, handshakes int
	startPacket                *ReceivedPacket
	negotiated                 []protocol.Version
}

var _ HandshakeEngine = &fakeEngine{}

func newFakeEngine(pers protocol.Perspective) *fakeEngine {
	return &fakeEngine{
		pers:              pers,
		versionNegotiated: true,
		hasRemoteTP:       true,
		localTP:           &handshake.TransportParameters{InitialMaxData: 1 << 16},
		remoteTP:          &handshake.TransportParameters{InitialMaxData: 1 << 16},
		level:             protocol.EncryptionInitial,
		cryptoOut:         make(map[protocol.EncryptionLevel][]byte),
		sealers:           make(map[protocol.EncryptionLevel]handshake.Sealer),
		openers:           make(map[protocol.EncryptionLevel]handshake.Opener),
	}
}

func (e *fakeEngine) Start(p *ReceivedPacket) error {
	e.starts++
	e.startPacket = p
	return nil
}
func (e *fakeEngine) DoHandshake() error { e.handshakes++; return nil }
func (e *fakeEngine) IsCompleted() bool  { return e.completed }

func (e *fakeEngine) IsVersionNegotiated() bool { return e.versionNegotiated }
func (e *fakeEngine) NegotiateVersion(versions []protocol.Version) error {
	e.negotiated = versions
	e.versionNegotiated = true
	return nil
}

func (e *fakeEngine) HasRemoteTransportParameters() bool { return e.hasRemoteTP }
func (e *fakeEngine) LocalTransportParameters() *handshake.TransportParameters {
	return e.localTP
}
func (e *fakeEngine) RemoteTransportParameters() *handshake.TransportParameters {
	return e.remoteTP
}

func (e *fakeEngine) CurrentEncryptionLevel() protocol.EncryptionLevel { return e.level }
func (e *fakeEngine) NegotiatedCipherSuite() string                    { return "TLS_AES_128_GCM_SHA256" }
func (e *fakeEngine) NegotiatedApplication() string                    { return e.alpn }

func (e *fakeEngine) InitializeKeyMaterials(connID protocol.ConnectionID) error {
	e.keyCID = connID
	sealer, opener, err := handshake.NewInitialAEAD(connID, e.pers)
	if err != nil {
		return err
	}
	e.sealers[protocol.EncryptionInitial] = sealer
	e.openers[protocol.EncryptionInitial] = opener
	return nil
}

// installAllLevelKeys reuses the Initial AEAD for all encryption levels,
// so tests can exercise Handshake and 1-RTT packets.
func (e *fakeEngine) installAllLevelKeys() {
	for _, level := range protocol.EncryptionLevels {
		e.sealers[level] = e.sealers[protocol.EncryptionInitial]
		e.openers[level] = e.openers[protocol.EncryptionInitial]
	}
}

func (e *fakeEngine) Sealer(level protocol.EncryptionLevel) (handshake.Sealer, error) {
	s, ok := e.sealers[level]
	if !ok {
		return nil, handshake.ErrKeysNotYetAvailable
	}
	return s, nil
}

func (e *fakeEngine) Opener(level protocol.EncryptionLevel) (handshake.Opener, error) {
	o, ok := e.openers[level]
	if !ok {
		return nil, handshake.ErrKeysNotYetAvailable
	}
	return o, nil
}

func (e *fakeEngine) Reset() { e.resets++ }

func (e *fakeEngine) Interests() []wire.FrameType {
	return []wire.FrameType{wire.FrameTypeCrypto}
}

func (e *fakeEngine) HandleFrame(_ protocol.EncryptionLevel, f wire.Frame) error {
	if _, ok := f.(*wire.CryptoFrame); ok && e.completeOnCrypto {
		e.completed = true
	}
	return nil
}

func (e *fakeEngine) WillGenerateFrame(level protocol.EncryptionLevel) bool {
	return len(e.cryptoOut[level]) > 0
}

func (e *fakeEngine) GenerateFrame(level protocol.EncryptionLevel, _ uint16, maxSize protocol.ByteCount) wire.Frame {
	data := e.cryptoOut[level]
	if len(data) == 0 {
		return nil
	}
	f := &wire.CryptoFrame{Data: data}
	if f.Length(protocol.VersionDraft13) > maxSize {
		n := f.MaxDataLen(maxSize)
		if n <= 0 {
			return nil
		}
		f.Data = data[:n]
	}
	e.cryptoOut[level] = data[len(f.Data):]
	return f
}

// fakeStreams is a scriptable stream manager.
type fakeStreams struct {
	frames []wire.Frame

	offsetReceived protocol.ByteCount
	offsetSent     protocol.ByteCount
	reordered      protocol.ByteCount

	initLocal, initRemote *handshake.TransportParameters
	initCalled            bool
}

var _ StreamManager = &fakeStreams{}

func (s *fakeStreams) Interests() []wire.FrameType {
	return []wire.FrameType{wire.FrameTypeStream, wire.FrameTypeMaxStreamData, wire.FrameTypeStreamBlocked}
}

func (s *fakeStreams) HandleFrame(_ protocol.EncryptionLevel, f wire.Frame) error {
	if sf, ok := f.(*wire.StreamFrame); ok {
		s.offsetReceived += sf.DataLen()
		s.reordered += sf.DataLen()
	}
	return nil
}

func (s *fakeStreams) InitFlowControlParams(local, remote *handshake.TransportParameters) {
	s.initCalled = true
	s.initLocal, s.initRemote = local, remote
}

func (s *fakeStreams) WillGenerateFrame(protocol.EncryptionLevel) bool { return len(s.frames) > 0 }

func (s *fakeStreams) GenerateFrame(_ protocol.EncryptionLevel, credit, maxSize protocol.ByteCount) wire.Frame {
	if len(s.frames) == 0 {
		return nil
	}
	f := s.frames[0]
	if f.Length(protocol.VersionDraft13) > maxSize {
		return nil
	}
	if sf, ok := f.(*wire.StreamFrame); ok {
		if sf.DataLen() > credit {
			return nil
		}
		s.offsetSent += sf.DataLen()
	}
	s.frames = s.frames[1:]
	return f
}

func (s *fakeStreams) TotalOffsetReceived() protocol.ByteCount { return s.offsetReceived }
func (s *fakeStreams) TotalOffsetSent() protocol.ByteCount     { return s.offsetSent }
func (s *fakeStreams) TotalReorderedBytes() protocol.ByteCount { return s.reordered }

// fakeSender records outgoing datagrams.
type fakeSender struct {
	datagrams [][]byte
	closed    bool
}

var _ PacketHandler = &fakeSender{}

func (s *fakeSender) SendPacket(_ *Conn, payload []byte) {
	s.datagrams = append(s.datagrams, payload)
}
func (s *fakeSender) CloseConnection(*Conn) { s.closed = true }

// fakeApp records application callbacks.
type fakeApp struct {
	accepted, opened bool
}

var _ Application = &fakeApp{}

func (a *fakeApp) HandleAccept(*Conn) { a.accepted = true }
func (a *fakeApp) HandleOpen(*Conn)   { a.opened = true }

type testConn struct {
	conn    *Conn
	engine  *fakeEngine
	streams *fakeStreams
	sender  *fakeSender
	app     *fakeApp
	table   *ConnTable
}

var (
	testLocalAddr  = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 4433}
	testRemoteAddr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50000}
)

// newTestConn builds a connection wired to fakes. The event loop is not
// started; tests drive handleEvent directly.
func newTestConn(t *testing.T, pers protocol.Perspective, modify func(conf *Config)) *testConn {
	t.Helper()

	tc := &testConn{
		sender:  &fakeSender{},
		app:     &fakeApp{},
		table:   NewConnTable(),
		streams: &fakeStreams{},
	}
	engine := newFakeEngine(pers)
	tc.engine = engine

	config := &Config{
		ServerID: []byte("test-server"),
		NewHandshakeEngine: func(*Conn, *tls.Config) HandshakeEngine {
			return engine
		},
		NewStreamManager: func(*Conn) StreamManager { return tc.streams },
		Applications:     map[string]Application{"": tc.app},
	}
	if modify != nil {
		modify(config)
	}

	var c *Conn
	var err error
	if pers == protocol.PerspectiveServer {
		peerCID := protocol.ConnectionID{9, 9, 9, 9, 9, 9, 9, 9}
		originalCID := protocol.ConnectionID{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa}
		c, err = Accept(peerCID, originalCID, testLocalAddr, testRemoteAddr, tc.sender, tc.table, config)
	} else {
		c, err = Dial(testLocalAddr, testRemoteAddr, tc.sender, tc.table, config)
	}
	require.NoError(t, err)
	require.NoError(t, c.setup())
	tc.conn = c
	return tc
}

// makeEstablished drives the connection into the established state.
func (tc *testConn) makeEstablished(t *testing.T) {
	t.Helper()
	tc.engine.completed = true
	tc.engine.installAllLevelKeys()
	require.Equal(t, statePreHandshake, tc.conn.state)
	// an empty read-ready event drives the switch without side effects
	tc.conn.handleEvent(eventPacketReadReady)
	require.Equal(t, stateEstablished, tc.conn.state)
}

// drainAltCIDFrames pops all pending NEW_CONNECTION_ID and
// RETIRE_CONNECTION_ID frames so they don't interfere with packetizer
// assertions.
func (tc *testConn) drainAltCIDFrames(t *testing.T) {
	t.Helper()
	if tc.conn.altCIDs == nil {
		return
	}
	for tc.conn.altCIDs.WillGenerateFrame(protocol.Encryption1RTT) {
		require.NotNil(t, tc.conn.altCIDs.GenerateFrame(protocol.Encryption1RTT, 1, 1200))
	}
}

// sealPeerPacket builds a sealed datagram as the peer would produce it.
func sealPeerPacket(t *testing.T, tc *testConn, typ protocol.PacketType, dcid, scid protocol.ConnectionID, pn protocol.PacketNumber, payload []byte) []byte {
	t.Helper()
	sealer, _, err := handshake.NewInitialAEAD(tc.engine.keyCID, tc.conn.perspective.Opposite())
	require.NoError(t, err)

	hdr := &wire.Header{
		Type:             typ,
		Version:          protocol.VersionDraft13,
		DestConnectionID: dcid,
		SrcConnectionID:  scid,
		PacketNumber:     pn,
		Length:           wire.PacketNumberLen + protocol.ByteCount(len(payload)) + protocol.ByteCount(sealer.Overhead()),
	}
	raw, err := hdr.Append(nil, protocol.VersionDraft13)
	require.NoError(t, err)
	pnOffset := protocol.ByteCount(len(raw)) - wire.PacketNumberLen
	raw = sealer.Seal(raw, payload, pn, raw[:len(raw):len(raw)])
	protectPacketNumber(raw, pnOffset, sealer)
	return raw
}

func cryptoPayload(t *testing.T, data []byte) []byte {
	t.Helper()
	f := &wire.CryptoFrame{Data: data}
	b, err := f.Append(nil, protocol.VersionDraft13)
	require.NoError(t, err)
	return b
}

// drainFrames parses all frames of a payload.
func drainFrames(t *testing.T, payload []byte) []wire.Frame {
	t.Helper()
	parser := wire.NewFrameParser(protocol.VersionDraft13)
	var frames []wire.Frame
	for len(payload) > 0 {
		f, l, err := parser.ParseNext(payload)
		require.NoError(t, err)
		payload = payload[l:]
		if f == nil {
			break
		}
		frames = append(frames, f)
	}
	return frames
}
