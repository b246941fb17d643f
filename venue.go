// Package venue hosts compiled DSP programs against live audio and MIDI
// hardware. A Venue owns the device and fans each hardware block out to its
// running sessions; a Session owns one performer and the adapters that
// connect its endpoints to the device's channels.
package venue

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/glasshall/venue/device"
	"github.com/glasshall/venue/endpoint"
	"github.com/glasshall/venue/midi"
	"github.com/glasshall/venue/performer"
)

const (
	// numWarmUpSamples is how much audio passes before sessions are fed.
	// Below this the venue emits silence while the device stabilizes.
	numWarmUpSamples = 15000

	// controlTickInterval paces the watchdog and hot-plug checks.
	controlTickInterval = time.Second / 3

	// stallTimeout is how long the block counter may sit still, after
	// having moved at least once, before the callback is presumed wedged.
	stallTimeout = 2 * time.Second

	// midiRescanInterval paces MIDI input port re-enumeration.
	midiRescanInterval = 2 * time.Second
)

// EndpointInfo is a venue-owned endpoint plus its routing metadata: where in
// the hardware block it lives and whether its medium is MIDI.
type EndpointInfo struct {
	Details      endpoint.Details
	ChannelIndex int
	IsMIDI       bool
}

// Options configure construction beyond the Requirements. Zero values pick
// the production defaults.
type Options struct {
	// Device supplies the audio hardware; required.
	Device device.Device

	// MIDIScanner enumerates MIDI input ports; nil disables MIDI input.
	MIDIScanner device.MIDIScanner

	// FatalHandler receives watchdog trips; nil means TerminateHandler.
	FatalHandler FatalHandler

	// DisableControlLoop stops the background ticker from starting, for
	// callers that drive controlTick themselves.
	DisableControlLoop bool
}

// Venue owns the hardware device, the live sessions and the timers guarding
// them. It is the sole entry point for the device's real-time callback.
type Venue struct {
	req          Requirements
	log          *slog.Logger
	newPerformer performer.Factory

	dev         device.Device
	midiScanner device.MIDIScanner

	sources []EndpointInfo
	sinks   []EndpointInfo

	// The registry is the single structure shared between the control and
	// real-time domains; mu is held for O(len(active)) on both sides.
	mu     sync.Mutex
	active []*Session

	collector *midi.Collector
	incoming  []midi.Event

	load          *loadMeasurer
	totalSamples  uint64 // audio thread only
	callbackCount atomic.Uint32

	fatal FatalHandler
	stall stallDetector

	openPorts     []openMIDIPort
	lastPortNames []string
	lastMIDICheck time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

type openMIDIPort struct {
	name string
	stop func()
}

// New opens the default hardware backends (portaudio audio, rtmidi MIDI) and
// starts the venue.
func New(req Requirements, factory performer.Factory) (*Venue, error) {
	dev, err := device.NewPortAudio()
	if err != nil {
		return nil, err
	}
	var scanner device.MIDIScanner
	if s, err := device.NewGoMIDIScanner(); err == nil {
		scanner = s
	}
	return NewWithOptions(req, factory, Options{Device: dev, MIDIScanner: scanner})
}

// NewWithOptions opens the given device with the normalized requirements,
// synthesizes the hardware endpoint catalog, starts the stream and the
// control loop. An unusable backend is reported as an error, never an abort.
func NewWithOptions(req Requirements, factory performer.Factory, opt Options) (*Venue, error) {
	if opt.Device == nil {
		return nil, device.ErrNoBackend
	}
	req = req.normalized()

	ctx, cancel := context.WithCancel(context.Background())
	v := &Venue{
		req:          req,
		log:          req.logger(),
		newPerformer: factory,
		dev:          opt.Device,
		midiScanner:  opt.MIDIScanner,
		collector:    midi.NewCollector(),
		incoming:     make([]midi.Event, 0, midiQueueCapacity),
		load:         newLoadMeasurer(),
		fatal:        opt.FatalHandler,
		stall:        stallDetector{timeout: stallTimeout},
		ctx:          ctx,
		cancel:       cancel,
		now:          time.Now,
	}
	if v.fatal == nil {
		v.fatal = TerminateHandler{Logger: v.log}
	}

	err := v.dev.Open(device.Config{
		InputChannels:  req.NumInputChannels,
		OutputChannels: req.NumOutputChannels,
		SampleRate:     req.SampleRate,
		BlockSize:      req.BlockSize,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open audio device: %w", err)
	}

	v.buildEndpointCatalog()

	if err := v.startDevice(); err != nil {
		cancel()
		return nil, err
	}

	v.log.Info("venue ready",
		"device", v.dev.Name(),
		"sampleRate", v.dev.SampleRate(),
		"blockSize", v.dev.BlockSize(),
		"inputs", v.dev.InputChannels(),
		"outputs", v.dev.OutputChannels())

	if !opt.DisableControlLoop {
		v.wg.Add(1)
		go v.controlLoop()
	}
	return v, nil
}

// buildEndpointCatalog synthesizes the venue's hardware-native endpoints:
// one stream per audio direction that has channels, plus MIDI event
// endpoints in both directions.
func (v *Venue) buildEndpointCatalog() {
	if n := v.dev.InputChannels(); n > 0 {
		v.sources = append(v.sources, audioEndpoint("defaultIn", n))
	}
	if n := v.dev.OutputChannels(); n > 0 {
		v.sinks = append(v.sinks, audioEndpoint("defaultOut", n))
	}
	v.sources = append(v.sources, midiEndpoint("defaultMidiIn"))
	v.sinks = append(v.sinks, midiEndpoint("defaultMidiOut"))
}

func audioEndpoint(id string, numChannels int) EndpointInfo {
	return EndpointInfo{
		Details: endpoint.Details{
			ID:          endpoint.ID(id),
			Name:        id,
			Kind:        endpoint.KindStream,
			SampleTypes: []endpoint.SampleType{endpoint.Float32},
			NumChannels: numChannels,
		},
	}
}

func midiEndpoint(id string) EndpointInfo {
	return EndpointInfo{
		Details: endpoint.Details{
			ID:          endpoint.ID(id),
			Name:        id,
			Kind:        endpoint.KindEvent,
			SampleTypes: []endpoint.SampleType{endpoint.Int32},
			NumChannels: 1,
		},
		IsMIDI: true,
	}
}

// startDevice starts the stream and resets everything keyed to the active
// configuration.
func (v *Venue) startDevice() error {
	v.callbackCount.Store(0)
	v.stall = stallDetector{timeout: stallTimeout}
	v.collector.Reset(v.dev.SampleRate())
	v.load.reset(v.dev.SampleRate())

	if err := v.dev.Start(v.audioCallback); err != nil {
		return fmt.Errorf("start audio device: %w", err)
	}

	v.mu.Lock()
	for _, s := range v.active {
		s.prepareToPlay(v.dev.SampleRate(), v.dev.BlockSize())
	}
	v.mu.Unlock()
	return nil
}

// CreateSession returns a new, empty session bound to this venue. The caller
// owns it and must Close it.
func (v *Venue) CreateSession() *Session {
	s := &Session{
		id:    uuid.New(),
		venue: v,
		perf:  v.newPerformer(),
	}
	s.prepareToPlay(v.dev.SampleRate(), v.dev.BlockSize())
	return s
}

// SourceEndpoints lists the venue's hardware-native source endpoints.
func (v *Venue) SourceEndpoints() []endpoint.Details { return detailsOf(v.sources) }

// SinkEndpoints lists the venue's hardware-native sink endpoints.
func (v *Venue) SinkEndpoints() []endpoint.Details { return detailsOf(v.sinks) }

func detailsOf(list []EndpointInfo) []endpoint.Details {
	out := make([]endpoint.Details, 0, len(list))
	for _, e := range list {
		out = append(out, e.Details)
	}
	return out
}

// ConnectSessionInputEndpoint wires a program input to a venue source. On
// any mismatch it returns an error and leaves the session untouched.
func (v *Venue) ConnectSessionInputEndpoint(s *Session, inputID, venueSourceID endpoint.ID) error {
	info := findEndpointInfo(v.sources, venueSourceID)
	if info == nil {
		return fmt.Errorf("%w: source %q", ErrUnknownEndpoint, venueSourceID)
	}
	return s.connectInput(info.ChannelIndex, info.IsMIDI, inputID)
}

// ConnectSessionOutputEndpoint wires a program output to a venue sink.
func (v *Venue) ConnectSessionOutputEndpoint(s *Session, outputID, venueSinkID endpoint.ID) error {
	info := findEndpointInfo(v.sinks, venueSinkID)
	if info == nil {
		return fmt.Errorf("%w: sink %q", ErrUnknownEndpoint, venueSinkID)
	}
	return s.connectOutput(info.ChannelIndex, info.IsMIDI, outputID)
}

func findEndpointInfo(list []EndpointInfo, id endpoint.ID) *EndpointInfo {
	for i := range list {
		if list[i].Details.ID == id {
			return &list[i]
		}
	}
	return nil
}

// startSession adds s to the real-time dispatch list; already-present
// sessions are left in place.
func (v *Venue) startSession(s *Session) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !slices.Contains(v.active, s) {
		v.active = append(v.active, s)
	}
}

// stopSession removes s; absent sessions are a no-op.
func (v *Venue) stopSession(s *Session) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := slices.Index(v.active, s); i >= 0 {
		v.active = slices.Delete(v.active, i, i+1)
	}
}

func (v *Venue) deviceXRuns() int { return v.dev.XRunCount() }

// audioCallback runs once per hardware block on the device's real-time
// thread. Steady state performs no allocation; the registry lock is the only
// lock taken.
func (v *Venue) audioCallback(input, output [][]float32) {
	v.load.startMeasurement()
	v.callbackCount.Add(1)

	numFrames := blockFrames(input, output)

	for _, ch := range output {
		for i := range ch {
			ch[i] = 0
		}
	}

	v.incoming = v.collector.RemoveNextBlock(v.incoming[:0], numFrames)

	if v.totalSamples > numWarmUpSamples {
		v.mu.Lock()
		for _, s := range v.active {
			s.processBlock(input, output, v.incoming, numFrames)
		}
		v.mu.Unlock()
	}

	v.incoming = v.incoming[:0]
	v.totalSamples += uint64(numFrames)
	v.load.stopMeasurement(numFrames)
}

func blockFrames(input, output [][]float32) int {
	if len(output) > 0 {
		return len(output[0])
	}
	if len(input) > 0 {
		return len(input[0])
	}
	return 0
}

// controlLoop runs the low-frequency control-domain work: the stalled
// processor watchdog and MIDI hot-plug polling. Never touches the real-time
// path beyond reading its counters.
func (v *Venue) controlLoop() {
	defer v.wg.Done()
	ticker := time.NewTicker(controlTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-v.ctx.Done():
			return
		case <-ticker.C:
			v.controlTick(v.now())
		}
	}
}

// controlTick performs one round of control-domain checks.
func (v *Venue) controlTick(now time.Time) {
	if v.stall.check(v.callbackCount.Load(), now) {
		v.fatal.HandleFatal("audio callback took too long to execute")
		return
	}
	v.checkMIDIDevices(now)
}

// checkMIDIDevices re-enumerates MIDI inputs and reconciles the open set
// with what is present, logging every transition. Port churn is never an
// error.
func (v *Venue) checkMIDIDevices(now time.Time) {
	if v.midiScanner == nil || now.Sub(v.lastMIDICheck) < midiRescanInterval {
		return
	}
	v.lastMIDICheck = now

	ports, err := v.midiScanner.Scan()
	if err != nil {
		v.log.Debug("MIDI scan failed", "error", err)
		return
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.Name()
	}
	if slices.Equal(names, v.lastPortNames) {
		return
	}
	v.lastPortNames = names

	for _, p := range v.openPorts {
		v.log.Info("closing MIDI device", "name", p.name)
		p.stop()
	}
	v.openPorts = v.openPorts[:0]

	for _, p := range ports {
		stop, err := p.Listen(v.handleIncomingMIDI)
		if err != nil {
			v.log.Warn("cannot open MIDI device", "name", p.Name(), "error", err)
			continue
		}
		v.log.Info("opening MIDI device", "name", p.Name())
		v.openPorts = append(v.openPorts, openMIDIPort{name: p.Name(), stop: stop})
	}
}

// handleIncomingMIDI receives raw messages from port listener threads.
// Messages of four or more bytes are not representable and are dropped.
func (v *Venue) handleIncomingMIDI(data []byte) {
	if len(data) >= 4 {
		return
	}
	v.collector.Add(data)
}

// Close stops the control loop, closes MIDI ports and shuts the device down.
// Sessions still held by callers become inert.
func (v *Venue) Close() error {
	v.cancel()
	v.wg.Wait()

	for _, p := range v.openPorts {
		p.stop()
	}
	v.openPorts = nil

	if err := v.dev.Stop(); err != nil {
		v.log.Warn("stopping audio device", "error", err)
	}

	v.mu.Lock()
	for _, s := range v.active {
		s.deviceStopped()
	}
	v.active = nil
	v.mu.Unlock()

	return v.dev.Close()
}

// stallDetector watches the block counter from the control thread and
// reports when the callback has wedged: the counter moved at least once,
// then sat still past the timeout.
type stallDetector struct {
	timeout    time.Duration
	lastCount  uint32
	lastChange time.Time
}

func (d *stallDetector) check(count uint32, now time.Time) bool {
	if d.lastCount != count {
		d.lastCount = count
		d.lastChange = now
	}
	return d.lastCount != 0 && now.Sub(d.lastChange) > d.timeout
}
