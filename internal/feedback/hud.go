package feedback

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Alert is one line in the HUD alert log.
type Alert struct {
	ID       ulid.ULID
	At       time.Time
	Type     Type
	Severity Severity
	Entity   uint64
	Text     string
	Count    int // consecutive repeats folded into this line
}

// alertFormats maps event types to printer keys. Keys double as the English text.
var alertFormats = map[Type]string{
	ShieldHit:          "Shield hit: %.1f MJ absorbed",
	ShieldDepleted:     "Shields depleted",
	ShieldRecharging:   "Shields recharging: %.0f%%",
	ShieldFullyCharged: "Shields fully charged",
	HullDamage:         "Hull damage: %.1f",
	CriticalDamage:     "Critical damage: %.1f",
	WeaponFired:        "%s fired",
	WeaponOverheat:     "%s cooling down",
	AmmoEmpty:          "%s ammunition depleted",
	PowerOverload:      "Power overload: demand at %.0f%% of capacity",
	EnergyDiverted:     "Diverted %.1f MW",
	WarningLowShields:  "Low shields: %.0f%%",
	WarningLowPower:    "Low power",
}

// 繁體中文翻譯
var zhHant = map[string]string{
	"Shield hit: %.1f MJ absorbed":                  "護盾受擊：吸收 %.1f MJ",
	"Shields depleted":                              "護盾耗盡",
	"Shields recharging: %.0f%%":                    "護盾充能中：%.0f%%",
	"Shields fully charged":                         "護盾已充滿",
	"Hull damage: %.1f":                             "船體受損：%.1f",
	"Critical damage: %.1f":                         "嚴重損傷：%.1f",
	"%s fired":                                      "%s 開火",
	"%s cooling down":                               "%s 冷卻中",
	"%s ammunition depleted":                        "%s 彈藥耗盡",
	"Power overload: demand at %.0f%% of capacity": "電力過載：需求達容量的 %.0f%%",
	"Diverted %.1f MW":                              "已轉移 %.1f MW",
	"Low shields: %.0f%%":                           "護盾偏低：%.0f%%",
	"Low power":                                     "電力不足",
}

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range zhHant {
		// 失敗只會發生在格式錯誤時，啟動期即可發現
		_ = b.SetString(language.TraditionalChinese, key, msg)
	}
	return b
}

// AlertLog is a Listener that keeps the most recent HUD alerts, formatted for
// the configured locale. It is read by the renderer on another code path, so
// access is guarded.
type AlertLog struct {
	mu      sync.Mutex
	printer *message.Printer
	alerts  []Alert
	max     int
	min     Severity
	now     func() time.Time
}

// NewAlertLog builds a log that keeps up to max alerts at or above minSeverity.
// An unparseable locale falls back to English.
func NewAlertLog(locale string, max int, minSeverity Severity) *AlertLog {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	if max <= 0 {
		max = 8
	}
	return &AlertLog{
		printer: message.NewPrinter(tag, message.Catalog(newCatalog())),
		max:     max,
		min:     minSeverity,
		now:     time.Now,
	}
}

func (l *AlertLog) OnEvent(ev Event) {
	if ev.Severity < l.min {
		return
	}
	l.push(ev.Type, ev.Severity, uint64(ev.Entity), l.format(ev))
}

// Post adds a free-form line, e.g. from a mission script.
func (l *AlertLog) Post(text string, sev Severity) {
	l.push(-1, sev, 0, text)
}

func (l *AlertLog) push(t Type, sev Severity, entity uint64, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// 同一實體連續同類警告（例如每 tick 的低護盾）折疊成一行
	if n := len(l.alerts); n > 0 {
		last := &l.alerts[n-1]
		if last.Type == t && last.Entity == entity && t >= 0 {
			last.Text = text
			last.Severity = sev
			last.At = l.now()
			last.Count++
			return
		}
	}

	l.alerts = append(l.alerts, Alert{
		ID:       ulid.Make(),
		At:       l.now(),
		Type:     t,
		Severity: sev,
		Entity:   entity,
		Text:     text,
		Count:    1,
	})
	if len(l.alerts) > l.max {
		copy(l.alerts, l.alerts[len(l.alerts)-l.max:])
		l.alerts = l.alerts[:l.max]
	}
}

func (l *AlertLog) format(ev Event) string {
	key, ok := alertFormats[ev.Type]
	if !ok {
		if ev.Message != "" {
			return ev.Message
		}
		return ev.Type.String()
	}
	switch ev.Type {
	case WeaponFired, WeaponOverheat, AmmoEmpty:
		return l.printer.Sprintf(key, ev.Component)
	case ShieldDepleted, ShieldFullyCharged, WarningLowPower:
		return l.printer.Sprintf(key)
	case PowerOverload:
		return l.printer.Sprintf(key, ev.Magnitude*100)
	default:
		return l.printer.Sprintf(key, ev.Magnitude)
	}
}

// Snapshot returns a copy of the current alerts, oldest first.
func (l *AlertLog) Snapshot() []Alert {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Alert, len(l.alerts))
	copy(out, l.alerts)
	return out
}
