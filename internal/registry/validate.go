package registry

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	// DefaultExpiration 是未指定过期策略时使用的策略
	DefaultExpiration = "30 days"
	// ExpirationNever 表示永不过期
	ExpirationNever = "never"

	maxExpirationDays = 36500
	maxOwnerIDLength  = 64
)

var expirationPattern = regexp.MustCompile(`^(\d+)\s*days?$`)

// Expiration 是解析后的过期策略
type Expiration struct {
	Never bool
	Days  int
}

// ParseExpiration 解析 "never" 或 "N days" (N 为正整数), 空字符串使用默认的 30 天
func ParseExpiration(policy string) (Expiration, error) {
	p := strings.ToLower(strings.TrimSpace(policy))
	if p == "" {
		p = DefaultExpiration
	}
	if p == ExpirationNever {
		return Expiration{Never: true}, nil
	}
	m := expirationPattern.FindStringSubmatch(p)
	if m == nil {
		return Expiration{}, ErrInvalidExpiration
	}
	days, err := strconv.Atoi(m[1])
	if err != nil || days <= 0 || days > maxExpirationDays {
		return Expiration{}, ErrInvalidExpiration
	}
	return Expiration{Days: days}, nil
}

// ExpiresAt 计算相对 now 的过期时间, 永不过期时返回 nil
func (e Expiration) ExpiresAt(now time.Time) *time.Time {
	if e.Never {
		return nil
	}
	t := now.Add(time.Duration(e.Days) * 24 * time.Hour)
	return &t
}

// NormalizeURL 校验目标地址, 没有协议时补上 https://
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return "", ErrInvalidURL
	}

	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(s, "://") {
			return "", ErrInvalidURL
		}
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return "", ErrInvalidURL
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return "", ErrInvalidURL
	}
	if !validHost(u.Hostname()) {
		return "", ErrInvalidURL
	}
	return s, nil
}

// validHost 接受 localhost, IP 地址, 或至少包含一个点的域名
func validHost(host string) bool {
	if host == "" {
		return false
	}
	if host == "localhost" || net.ParseIP(host) != nil {
		return true
	}
	labels := strings.Split(strings.TrimSuffix(host, "."), ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		for _, r := range label {
			if r != '-' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}

func validOwner(ownerID string) bool {
	return len(ownerID) <= maxOwnerIDLength
}
