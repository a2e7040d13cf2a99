package schema

import "sort"

// Built-in profiles for the BoT-IoT dataset layout.
const (
	ProfileBoTIoT             = "botiot"
	ProfileBoTIoTBalancedFS   = "botiot-balanced-fs"
	ProfileBoTIoTUnbalancedFS = "botiot-unbalanced-fs"
)

var profiles = map[string]func() (*Schema, error){
	ProfileBoTIoT:             BoTIoT,
	ProfileBoTIoTBalancedFS:   BoTIoTBalancedFS,
	ProfileBoTIoTUnbalancedFS: BoTIoTUnbalancedFS,
}

// Profiles lists the built-in profile names.
func Profiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BoT-IoT raw column names, in file order.
var botiotNames = []string{
	"pkSeqID", "stime", "flgs", "proto", "saddr", "sport", "daddr", "dport",
	"pkts", "bytes", "state", "ltime", "seq", "dur", "mean", "stddev",
	"smac", "dmac", "sum", "min", "max", "soui", "doui", "sco", "dco",
	"spkts", "dpkts", "sbytes", "dbytes", "rate", "srate", "drate",
	"attack", "category", "subcategory",
}

// BoTIoTColumnNames returns the raw column names of the BoT-IoT export.
func BoTIoTColumnNames() []string {
	return append([]string(nil), botiotNames...)
}

var (
	flagCategories = []Category{
		{Value: "e *", Attribute: "e*"},
		{Value: "e", Attribute: "e"},
		{Value: "e    F", Attribute: "eF"},
		{Value: "e s", Attribute: "es"},
		{Value: "eU", Attribute: "eU"},
		{Value: "e g", Attribute: "eg"},
		{Value: "e &", Attribute: "e&"},
		{Value: "e d", Attribute: "ed"},
		{Value: "e r", Attribute: "er"},
	}
	protoCategories = categories("icmp", "igmp", "udp", "arp", "tcp", "ipv6-icmp", "rarp")
	stateCategories = categories("RSP", "CON", "FIN", "REQ", "ACC", "NRS", "URP", "RST", "INT")
)

func categories(values ...string) []Category {
	out := make([]Category, len(values))
	for i, v := range values {
		out[i] = Category{Value: v, Attribute: v}
	}
	return out
}

// botiotUnused are the columns no BoT-IoT profile turns into features.
// Columns a feature-selection profile drops on top of these still take part
// in null filtering, so every profile keeps the same set of rows.
var botiotUnused = map[string]bool{
	"smac": true, "dmac": true, "soui": true, "doui": true, "sco": true, "dco": true,
	"category": true, "subcategory": true,
}

func botiotColumns(kinds map[string]Kind, cats map[string][]Category) []Column {
	checked := true
	cols := make([]Column, len(botiotNames))
	for i, name := range botiotNames {
		cols[i] = Column{Index: i, Name: name, Kind: kinds[name], Categories: cats[name]}
		if cols[i].Kind == KindRemoved && !botiotUnused[name] {
			cols[i].CheckNull = &checked
		}
	}
	return cols
}

// BoTIoT is the full feature set: every usable column is kept, flags,
// protocol and state are one-hot encoded and both addresses decomposed.
func BoTIoT() (*Schema, error) {
	kinds := map[string]Kind{
		"pkSeqID": KindInteger, "sport": KindInteger, "dport": KindInteger,
		"pkts": KindInteger, "bytes": KindInteger, "seq": KindInteger,
		"spkts": KindInteger, "dpkts": KindInteger, "sbytes": KindInteger, "dbytes": KindInteger,

		"stime": KindReal, "ltime": KindReal, "dur": KindReal, "mean": KindReal,
		"stddev": KindReal, "sum": KindReal, "min": KindReal, "max": KindReal,
		"rate": KindReal, "srate": KindReal, "drate": KindReal,

		"flgs": KindCategorical, "proto": KindCategorical, "state": KindCategorical,
		"saddr": KindAddress, "daddr": KindAddress,
		"attack": KindLabel,
	}
	cats := map[string][]Category{
		"flgs":  flagCategories,
		"proto": protoCategories,
		"state": stateCategories,
	}
	return New("botiot", botiotColumns(kinds, cats))
}

// BoTIoTBalancedFS keeps the features selected for balanced datasets:
// stime, seq and the CON connection state.
func BoTIoTBalancedFS() (*Schema, error) {
	kinds := map[string]Kind{
		"stime":  KindReal,
		"seq":    KindInteger,
		"state":  KindCategorical,
		"attack": KindLabel,
	}
	cats := map[string][]Category{"state": categories("CON")}
	return New("botiot", botiotColumns(kinds, cats))
}

// BoTIoTUnbalancedFS keeps only the CON connection state.
func BoTIoTUnbalancedFS() (*Schema, error) {
	kinds := map[string]Kind{
		"state":  KindCategorical,
		"attack": KindLabel,
	}
	cats := map[string][]Category{"state": categories("CON")}
	return New("botiot", botiotColumns(kinds, cats))
}
