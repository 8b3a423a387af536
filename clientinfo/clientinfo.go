package clientinfo

import (
	"net"
	"net/http"
	"regexp"
	"strings"
)

// Device is the coarse client class derived from the User-Agent string.
type Device uint8

const (
	// DeviceUndefined is reported when the user agent is absent or matches no rule.
	DeviceUndefined Device = iota
	// DeviceMSIE is an Internet Explorer variant (including Trident "rv:" tokens).
	DeviceMSIE
	// DeviceChrome is an exported constant used by the client context resolver.
	DeviceChrome
	// DeviceOpera is an exported constant used by the client context resolver.
	DeviceOpera
	// DeviceFirefox is an exported constant used by the client context resolver.
	DeviceFirefox
	// DeviceIphone is an exported constant used by the client context resolver.
	DeviceIphone
	// DeviceIpad is an exported constant used by the client context resolver.
	DeviceIpad
	// DeviceAndroid is an exported constant used by the client context resolver.
	DeviceAndroid
	// DeviceBlackBerry is an exported constant used by the client context resolver.
	DeviceBlackBerry
	// DeviceSymbian is an exported constant used by the client context resolver.
	DeviceSymbian
	// DeviceSony is an exported constant used by the client context resolver.
	DeviceSony
	// DeviceMobile is the generic mobile class, matched last.
	DeviceMobile

	deviceCount
)

var deviceNames = [deviceCount]string{
	"undefined",
	"MSIE",
	"Chrome",
	"Opera",
	"Firefox",
	"Iphone",
	"Ipad",
	"Android",
	"BlackBerry",
	"Symbian",
	"Sony",
	"Mobile",
}

func (d Device) String() string {
	if d >= deviceCount {
		return deviceNames[DeviceUndefined]
	}
	return deviceNames[d]
}

// ClientContext is the derived, best-effort metadata about one requesting
// client. It is recomputed on every resolved request and embedded in the
// session record for logging and analytics collaborators.
type ClientContext struct {
	IP      string
	Device  Device
	IsRobot bool
}

// loopbackIP is the safe fallback for malformed, IPv6, or missing addresses.
const loopbackIP = "127.0.0.1"

const ipv4MappedPrefix = "::ffff:"

// Ordered match table. Substrings overlap ("Mobile" appears inside iPhone and
// Android agents), so the first match wins and generic rules sit at the bottom.
var deviceRules = []struct {
	token  string
	device Device
}{
	{"MSIE", DeviceMSIE},
	{"Chrome", DeviceChrome},
	{"Opera", DeviceOpera},
	{"Firefox", DeviceFirefox},
	{"rv:", DeviceMSIE},
	{"iPhone", DeviceIphone},
	{"iPad", DeviceIpad},
	{"Android", DeviceAndroid},
	{"BlackBerry", DeviceBlackBerry},
	{"symbian", DeviceSymbian},
	{"sony", DeviceSony},
	{"Mobile", DeviceMobile},
}

// Strict dotted-quad check. Permissive about leading zeros on purpose; this
// mirrors the accepted wire format, not net.ParseIP semantics.
var ipv4Pattern = regexp.MustCompile(
	`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`,
)

// Resolve derives a [ClientContext] from the peer address and request headers.
// It never fails: every malformed input resolves to a safe default (loopback
// IP, undefined device, robot false).
func Resolve(remoteAddr string, h http.Header) ClientContext {
	userAgent := h.Get("User-Agent")

	return ClientContext{
		IP:      ResolveIP(remoteAddr, h),
		Device:  ClassifyDevice(userAgent),
		IsRobot: IsRobot(userAgent),
	}
}

// ResolveIP picks the first client-supplied or proxy-resolved address, strips
// an IPv4-mapped-IPv6 prefix, and falls back to 127.0.0.1 for anything that is
// not a strict IPv4 dotted quad.
func ResolveIP(remoteAddr string, h http.Header) string {
	ip := firstCandidateIP(remoteAddr, h)

	ip = strings.TrimPrefix(ip, ipv4MappedPrefix)

	if !ipv4Pattern.MatchString(ip) {
		return loopbackIP
	}
	return ip
}

// ClassifyDevice runs the ordered substring table against the user agent.
// Absent or unrecognized agents yield [DeviceUndefined].
func ClassifyDevice(userAgent string) Device {
	if userAgent == "" {
		return DeviceUndefined
	}

	for _, rule := range deviceRules {
		if strings.Contains(userAgent, rule.token) {
			return rule.device
		}
	}
	return DeviceUndefined
}

// IsRobot reports whether the user agent contains the substring "bot",
// case-sensitive, independent of the device classification.
func IsRobot(userAgent string) bool {
	return strings.Contains(userAgent, "bot")
}

func firstCandidateIP(remoteAddr string, h http.Header) string {
	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if real := h.Get("X-Real-Ip"); real != "" {
		return strings.TrimSpace(real)
	}

	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
