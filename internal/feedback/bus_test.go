package feedback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	b := NewBus(nil)
	var order []string
	b.Subscribe(ListenerFunc(func(Event) { order = append(order, "hud") }))
	b.Subscribe(ListenerFunc(func(Event) { order = append(order, "audio") }))
	b.Subscribe(nil)

	b.Emit(New(ShieldHit, 1, Info))
	assert.Equal(t, []string{"hud", "audio"}, order)
	assert.Equal(t, 2, b.Len())
}

func TestBus_PanickingListenerDoesNotStopOthers(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := NewBus(zap.New(core))
	rec := &Recorder{}
	b.Subscribe(ListenerFunc(func(Event) { panic("boom") }))
	b.Subscribe(rec)

	b.Emit(New(HullDamage, 7, Warning))
	b.Emit(New(AmmoEmpty, 7, Critical))

	assert.Equal(t, []Type{HullDamage, AmmoEmpty}, rec.Types())
	assert.Equal(t, 2, logs.FilterMessage("feedback listener panicked").Len())
}

func TestBus_Clear(t *testing.T) {
	b := NewBus(nil)
	rec := &Recorder{}
	b.Subscribe(rec)
	b.Clear()
	b.Emit(New(ShieldHit, 1, Info))
	assert.Empty(t, rec.Events)
	assert.Zero(t, b.Len())
}

func TestDefault_IsShared(t *testing.T) {
	require.Same(t, Default(), Default())
	var _ Emitter = Default()
	Discard.Emit(New(ShieldHit, 1, Info))
}

func TestTypeAndSeverityNames(t *testing.T) {
	assert.Equal(t, "shield_hit", ShieldHit.String())
	assert.Equal(t, "alarm_evacuate", AlarmEvacuate.String())
	assert.Equal(t, "type(99)", Type(99).String())
	assert.Equal(t, "critical", Critical.String())
}

func TestAlertLog_FoldsRepeatsAndTrims(t *testing.T) {
	log := NewAlertLog("en", 3, Warning)

	log.OnEvent(New(ShieldHit, 1, Info)) // below threshold
	low := New(WarningLowShields, 1, Warning)
	low.Magnitude = 20
	log.OnEvent(low)
	low.Magnitude = 22
	log.OnEvent(low)

	alerts := log.Snapshot()
	require.Len(t, alerts, 1)
	assert.Equal(t, 2, alerts[0].Count)
	assert.Equal(t, "Low shields: 22%", alerts[0].Text)

	for _, ty := range []Type{ShieldDepleted, AmmoEmpty, WarningLowPower} {
		ev := New(ty, 2, Critical)
		ev.Component = "primary"
		log.OnEvent(ev)
	}
	alerts = log.Snapshot()
	require.Len(t, alerts, 3)
	assert.Equal(t, ShieldDepleted, alerts[0].Type)
	assert.Equal(t, "primary ammunition depleted", alerts[1].Text)
	assert.Equal(t, "Low power", alerts[2].Text)
}

func TestAlertLog_TraditionalChinese(t *testing.T) {
	log := NewAlertLog("zh-Hant", 4, Info)
	ev := New(WeaponOverheat, 1, Warning)
	ev.Component = "primary"
	log.OnEvent(ev)
	over := New(PowerOverload, 1, Warning)
	over.Magnitude = 1.5
	log.OnEvent(over)

	alerts := log.Snapshot()
	require.Len(t, alerts, 2)
	assert.Equal(t, "primary 冷卻中", alerts[0].Text)
	assert.Equal(t, "電力過載：需求達容量的 150%", alerts[1].Text)
}

func TestAlertLog_PostedLinesNeverFold(t *testing.T) {
	log := NewAlertLog("not a locale", 4, Info)
	log.Post("Dock approved", Info)
	log.Post("Dock approved", Info)
	alerts := log.Snapshot()
	require.Len(t, alerts, 2)
	assert.NotEqual(t, alerts[0].ID, alerts[1].ID)
}

func TestCuePlayer_MixesAndThrottles(t *testing.T) {
	p := NewCuePlayer(1, nil)
	now := time.Unix(0, 0)
	p.now = func() time.Time { return now }

	p.OnEvent(New(ShieldHit, 1, Info))
	p.OnEvent(New(ShieldHit, 1, Info)) // within min gap
	p.OnEvent(New(ShieldRecharging, 1, Info))
	assert.Equal(t, 1, p.Active())

	now = now.Add(time.Second)
	p.OnEvent(New(ShieldHit, 1, Info))
	assert.Equal(t, 2, p.Active())

	// drain the mixer until both tones end
	buf := make([][2]float64, 1024)
	for i := 0; i < 100 && p.Active() > 0; i++ {
		p.Mixer().Stream(buf)
	}
	assert.Zero(t, p.Active())
}

func TestTone_EndsAfterDuration(t *testing.T) {
	tone := NewTone(440, 440, 10*time.Millisecond, 0.5, true, SampleRate)
	buf := make([][2]float64, 10000)
	n, ok := tone.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, SampleRate.N(10*time.Millisecond), n)
	for _, s := range buf[:n] {
		assert.LessOrEqual(t, s[0], 0.5)
		assert.GreaterOrEqual(t, s[0], -0.5)
	}
	_, ok = tone.Stream(buf)
	assert.False(t, ok)
	assert.NoError(t, tone.Err())
}
