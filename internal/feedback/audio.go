package feedback

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
)

// SampleRate used for generated cues.
const SampleRate = beep.SampleRate(48000)

// cue describes a short synthesized sound.
type cue struct {
	freqStart, freqEnd float64 // Hz, linear sweep
	dur                time.Duration
	gain               float64
	square             bool
}

var cues = map[Type]cue{
	ShieldHit:         {freqStart: 520, freqEnd: 380, dur: 90 * time.Millisecond, gain: 0.25},
	ShieldDepleted:    {freqStart: 440, freqEnd: 110, dur: 400 * time.Millisecond, gain: 0.35},
	HullDamage:        {freqStart: 140, freqEnd: 90, dur: 160 * time.Millisecond, gain: 0.35, square: true},
	WeaponFired:       {freqStart: 1200, freqEnd: 700, dur: 50 * time.Millisecond, gain: 0.15},
	WeaponOverheat:    {freqStart: 300, freqEnd: 300, dur: 80 * time.Millisecond, gain: 0.1, square: true},
	AmmoEmpty:         {freqStart: 120, freqEnd: 120, dur: 150 * time.Millisecond, gain: 0.2, square: true},
	PowerOverload:     {freqStart: 880, freqEnd: 660, dur: 250 * time.Millisecond, gain: 0.2, square: true},
	WarningLowShields: {freqStart: 660, freqEnd: 660, dur: 60 * time.Millisecond, gain: 0.1},
	AlarmCritical:     {freqStart: 880, freqEnd: 440, dur: 500 * time.Millisecond, gain: 0.4, square: true},
	AlarmEvacuate:     {freqStart: 440, freqEnd: 880, dur: 700 * time.Millisecond, gain: 0.4, square: true},
}

// CuePlayer is a Listener that turns feedback events into short tones mixed
// into a beep.Mixer. The host plays Mixer() through the speaker; the lock
// must be the one that guards the speaker's streaming goroutine.
type CuePlayer struct {
	mixer   *beep.Mixer
	lock    sync.Locker
	volume  float64
	lastCue map[Type]time.Time
	minGap  time.Duration
	now     func() time.Time
}

// NewCuePlayer creates a player. lock may be nil when nothing streams the
// mixer concurrently.
func NewCuePlayer(volume float64, lock sync.Locker) *CuePlayer {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &CuePlayer{
		mixer:   &beep.Mixer{},
		lock:    lock,
		volume:  math.Max(0, math.Min(1, volume)),
		lastCue: make(map[Type]time.Time),
		minGap:  40 * time.Millisecond,
		now:     time.Now,
	}
}

// Mixer returns the streamer to hand to the speaker.
func (p *CuePlayer) Mixer() beep.Streamer { return p.mixer }

func (p *CuePlayer) OnEvent(ev Event) {
	c, ok := cues[ev.Type]
	if !ok || p.volume == 0 {
		return
	}
	// 同類音效過密時丟棄（例如每 tick 的低護盾提示）
	now := p.now()
	if last, seen := p.lastCue[ev.Type]; seen && now.Sub(last) < p.minGap {
		return
	}
	p.lastCue[ev.Type] = now

	if ev.Type == ShieldHit && ev.Magnitude > 0 {
		// heavier hits sound lower
		c.freqEnd = math.Max(120, c.freqEnd-ev.Magnitude)
	}
	tone := NewTone(c.freqStart, c.freqEnd, c.dur, c.gain*p.volume, c.square, SampleRate)

	p.lock.Lock()
	p.mixer.Add(tone)
	p.lock.Unlock()
}

// Active returns the number of cues still playing.
func (p *CuePlayer) Active() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.mixer.Len()
}

// Tone is a finite sine or square sweep with a linear decay envelope.
type Tone struct {
	sr        beep.SampleRate
	pos, n    int
	phase     float64
	fStart    float64
	fEnd      float64
	gain      float64
	square    bool
}

func NewTone(fStart, fEnd float64, dur time.Duration, gain float64, square bool, sr beep.SampleRate) *Tone {
	return &Tone{
		sr:     sr,
		n:      sr.N(dur),
		fStart: fStart,
		fEnd:   fEnd,
		gain:   gain,
		square: square,
	}
}

func (t *Tone) Stream(samples [][2]float64) (n int, ok bool) {
	if t.pos >= t.n {
		return 0, false
	}
	for i := range samples {
		if t.pos >= t.n {
			return i, true
		}
		progress := float64(t.pos) / float64(t.n)
		freq := t.fStart + (t.fEnd-t.fStart)*progress
		t.phase += 2 * math.Pi * freq / float64(t.sr)
		v := math.Sin(t.phase)
		if t.square {
			if v >= 0 {
				v = 1
			} else {
				v = -1
			}
		}
		v *= t.gain * (1 - progress)
		samples[i][0] = v
		samples[i][1] = v
		t.pos++
	}
	return len(samples), true
}

func (t *Tone) Err() error { return nil }
