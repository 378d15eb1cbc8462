package api

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URLValidator 图片代理的目标地址校验
type URLValidator struct {
	AllowHTTP      bool // 是否允许 HTTP
	AllowPrivateIP bool // 是否允许私有/回环地址（内网部署时需要）

	lookupIP func(host string) ([]net.IP, error)
}

var privateRanges = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"fc00::/7", // IPv6 unique local addresses
)

// ValidateURL 验证 URL 的安全性
func (v *URLValidator) ValidateURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("无效的 URL 格式: %w", err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("不支持的协议 %s, 仅允许 HTTP/HTTPS", scheme)
	}
	if !v.AllowHTTP && scheme == "http" {
		return fmt.Errorf("不允许使用 HTTP 协议,请使用 HTTPS")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("URL 缺少 host")
	}

	if v.AllowPrivateIP {
		return nil
	}

	hostname := parsedURL.Hostname()
	ips := []net.IP{net.ParseIP(hostname)}
	if ips[0] == nil {
		lookup := v.lookupIP
		if lookup == nil {
			lookup = net.LookupIP
		}
		if ips, err = lookup(hostname); err != nil {
			return fmt.Errorf("解析域名失败: %w", err)
		}
	}

	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("不允许访问私有 IP 地址: %s", ip.String())
		}
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsUnspecified() {
		return true
	}
	for _, ipnet := range privateRanges {
		if ipnet.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		nets = append(nets, ipnet)
	}
	return nets
}
