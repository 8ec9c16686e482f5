package export

import (
	"net/url"
	"regexp"
	"strings"
)

var mobileUA = regexp.MustCompile(`(?i)iPhone|iPad|iPod|Android`)

// TelegramLinker builds Telegram share links.
type TelegramLinker struct{}

func (TelegramLinker) Link(text, userAgent string) string {
	// chat apps show "+" literally, so spaces go out as %20
	encoded := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	if mobileUA.MatchString(userAgent) {
		return "tg://msg?text=" + encoded
	}
	return "https://t.me/share/url?url=" + encoded
}
