// Package clientinfo derives best-effort client metadata (IP address, device
// class, and a robot flag) from request transport data.
//
// # Resolution rules
//
// The IP comes from the first proxy header that carries one (X-Forwarded-For,
// then X-Real-IP), falling back to the peer address. An IPv4-mapped-IPv6
// prefix is stripped, and anything that is not a strict IPv4 dotted quad
// collapses to 127.0.0.1. The fallback is a safety net against malformed or
// spoofed headers; callers must not depend on exact IP accuracy.
//
// Device classification is an ordered, case-sensitive substring match, so a
// user agent containing both "Mobile" and "iPhone" classifies as Iphone: the
// more specific rule is listed first. Table order is load-bearing.
//
// # Architecture boundaries
//
// This package is a pure function of its inputs. It performs no I/O, holds no
// state, and does not import any other package of this module.
package clientinfo
