package membership

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// topologyFile is the on-disk shape of the bootstrap branch topology.
type topologyFile struct {
	Branches []branchEntry `yaml:"branches"`
}

type branchEntry struct {
	ID       int    `yaml:"id"`
	IP       string `yaml:"ip"`
	Self     bool   `yaml:"self"`
	Master   bool   `yaml:"master"`
	Capacity int    `yaml:"capacity"`
}

// defaultTopology is the five-branch table every fresh deployment is
// seeded with when no config file is given, matching the fixed set of
// branches this system has always shipped with. Branch 5 starts as
// master. Self is left unset here and set by LoadTopology from selfID,
// since a constant table can't know which of the five processes it is
// running as.
var defaultTopology = []branchEntry{
	{ID: 1, IP: "127.0.0.1:2221", Capacity: 2},
	{ID: 2, IP: "127.0.0.1:2222", Capacity: 3},
	{ID: 3, IP: "127.0.0.1:2223", Capacity: 5},
	{ID: 4, IP: "127.0.0.1:2224", Capacity: 7},
	{ID: 5, IP: "127.0.0.1:2225", Capacity: 11, Master: true},
}

// LoadTopology builds a Registry either from a YAML file at path, or —
// when path is empty — from the built-in default table. selfID picks
// which branch this process is bootstrapping as when using the default
// table; it is ignored whenever a config file is given, and the file
// itself must mark exactly one node "self".
func LoadTopology(path string, selfID int) (*Registry, error) {
	var entries []branchEntry

	if path == "" {
		entries = append(entries, defaultTopology...)
		found := false
		for i := range entries {
			if entries[i].ID == selfID {
				entries[i].Self = true
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("membership: no default branch with id %d", selfID)
		}
	} else {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("membership: read topology file: %w", err)
		}
		var tf topologyFile
		if err := yaml.Unmarshal(raw, &tf); err != nil {
			return nil, fmt.Errorf("membership: parse topology file: %w", err)
		}
		entries = tf.Branches
	}

	nodes := make([]Node, 0, len(entries))
	for _, e := range entries {
		nodes = append(nodes, Node{
			ID:       e.ID,
			IP:       e.IP,
			IsSelf:   e.Self,
			IsMaster: e.Master,
			Up:       true,
			Capacity: e.Capacity,
		})
	}
	return NewRegistry(nodes)
}
