package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/novaengine/nova/internal/combat"
)

// ShieldSpec seeds a ShieldRegulator entry.
type ShieldSpec struct {
	CapacityMJ    float64 `yaml:"capacity_mj"`
	RechargeRate  float64 `yaml:"recharge_rate"`
	RechargeDelay float64 `yaml:"recharge_delay"`
	Absorption    float64 `yaml:"absorption"`
	Component     string  `yaml:"component"`
}

// AllocationSpec is an unnormalized shields/weapons/thrusters split.
type AllocationSpec struct {
	Shields   float64 `yaml:"shields"`
	Weapons   float64 `yaml:"weapons"`
	Thrusters float64 `yaml:"thrusters"`
}

// PowerSpec seeds a PowerArbiter entry.
type PowerSpec struct {
	TotalMW           float64         `yaml:"total_mw"`
	ShieldReqMW       float64         `yaml:"shield_req_mw"`
	WeaponReqMW       float64         `yaml:"weapon_req_mw"`
	ThrusterReqMW     float64         `yaml:"thruster_req_mw"`
	OverloadThreshold float64         `yaml:"overload_threshold"` // 0 = keep default
	Allocation        *AllocationSpec `yaml:"allocation"`
}

// BodySpec seeds the RigidBody component.
type BodySpec struct {
	Mass          float64 `yaml:"mass"`
	UseGravity    bool    `yaml:"use_gravity"`
	LinearDamping float64 `yaml:"linear_damping"`
}

// Loadout is everything needed to outfit one ship entity.
type Loadout struct {
	Name           string                       `yaml:"name"`
	Shield         *ShieldSpec                  `yaml:"shield"`
	Power          *PowerSpec                   `yaml:"power"`
	Weapons        map[string]combat.SlotConfig `yaml:"-"` // decoded per slot over defaults
	Body           BodySpec                     `yaml:"body"`
	Hull           float64                      `yaml:"hull"` // 0 = indestructible
	CameraPriority int                          `yaml:"camera_priority"`
	Faction        int                          `yaml:"faction"`
}

// SlotNames returns the weapon slot names in lexical order.
func (l *Loadout) SlotNames() []string {
	names := make([]string, 0, len(l.Weapons))
	for n := range l.Weapons {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadoutTable provides lookup of ship loadouts by name.
type LoadoutTable struct {
	byName map[string]*Loadout
}

// LoadLoadoutTable loads loadouts.yaml.
func LoadLoadoutTable(path string) (*LoadoutTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read loadouts: %w", err)
	}
	return ParseLoadouts(raw)
}

// ParseLoadouts decodes loadout YAML. Weapon slots start from
// combat.DefaultSlotConfig, so omitted fields keep their defaults.
func ParseLoadouts(raw []byte) (*LoadoutTable, error) {
	var f struct {
		Loadouts []struct {
			Loadout `yaml:",inline"`
			Weapons map[string]yaml.Node `yaml:"weapons"`
		} `yaml:"loadouts"`
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse loadouts: %w", err)
	}
	t := &LoadoutTable{byName: make(map[string]*Loadout, len(f.Loadouts))}
	for i := range f.Loadouts {
		entry := &f.Loadouts[i]
		l := entry.Loadout
		if l.Name == "" {
			return nil, fmt.Errorf("parse loadouts: entry %d has no name", i)
		}
		if _, dup := t.byName[l.Name]; dup {
			return nil, fmt.Errorf("parse loadouts: duplicate loadout %q", l.Name)
		}
		l.Weapons = make(map[string]combat.SlotConfig, len(entry.Weapons))
		for slot, node := range entry.Weapons {
			cfg := combat.DefaultSlotConfig()
			if err := node.Decode(&cfg); err != nil {
				return nil, fmt.Errorf("loadout %q slot %q: %w", l.Name, slot, err)
			}
			l.Weapons[slot] = cfg
		}
		t.byName[l.Name] = &l
	}
	return t, nil
}

// Get returns the named loadout, or nil if none.
func (t *LoadoutTable) Get(name string) *Loadout {
	return t.byName[name]
}

// Count returns the total number of loadouts loaded.
func (t *LoadoutTable) Count() int {
	return len(t.byName)
}

// Names returns all loadout names in lexical order.
func (t *LoadoutTable) Names() []string {
	names := make([]string, 0, len(t.byName))
	for n := range t.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
