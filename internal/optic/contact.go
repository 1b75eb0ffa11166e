package optic

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/biter777/countries"
	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog"

	"resume-parser-go/internal/bgxml"
	"resume-parser-go/internal/types"
)

const (
	maxNameLength  = 35
	maxPhoneLength = 20
	phoneRegion    = "US"
)

var (
	emailPattern   = regexp.MustCompile(`[A-Za-z0-9._%+\-']+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}`)
	zipNoise       = regexp.MustCompile(`[^0-9 \-]`)
	zipSeparators  = strings.NewReplacer(" ", "", "-", "")
	phoneLabelByBG = map[string]types.PhoneLabel{
		"cell": types.PhoneLabelMobile,
		"home": types.PhoneLabelHome,
		"fax":  types.PhoneLabelHomeFax,
		"work": types.PhoneLabelWork,
	}
)

// ParseName 在所有contact节点中分别取第一个非空的名和姓
func ParseName(doc bgxml.Node) (first, last *string) {
	for _, contact := range doc.FindAll("contact") {
		if first == nil {
			first = nullable(ScrubName(TagText(contact, "givenname")))
		}
		if last == nil {
			last = nullable(ScrubName(TagText(contact, "surname")))
		}
		if first != nil && last != nil {
			break
		}
	}
	return first, last
}

// ExtractEmail 从文本中取出第一个形如邮箱的子串，没有时返回空串
func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

// ParseEmails 收集contact下的邮箱，按提取后的地址区分大小写去重
func ParseEmails(doc bgxml.Node) []types.Email {
	emails := make([]types.Email, 0)
	seen := make(map[string]struct{})
	for _, contact := range doc.FindAll("contact") {
		for _, n := range contact.FindAll("email") {
			addr := ExtractEmail(strings.TrimSpace(n.Text()))
			if addr == "" {
				continue
			}
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			emails = append(emails, types.Email{Address: addr})
		}
	}
	return emails
}

// PhoneLabelFor 将BG的phone type属性映射为标签
func PhoneLabelFor(bgType string) types.PhoneLabel {
	if label, ok := phoneLabelByBG[strings.ToLower(strings.TrimSpace(bgType))]; ok {
		return label
	}
	return types.PhoneLabelOther
}

// ParsePhones 解析contact下的电话。无法解析的号码记录日志后丢弃
func ParsePhones(doc bgxml.Node, logger zerolog.Logger) []types.Phone {
	phones := make([]types.Phone, 0)
	for _, contact := range doc.FindAll("contact") {
		for _, n := range contact.FindAll("phone") {
			raw := ScrubString(n.Text())
			if raw == "" {
				continue
			}
			if compact := strings.Join(strings.Fields(raw), ""); len(compact) > maxPhoneLength {
				logger.Debug().Str("phone", raw).Msg("电话号码过长，已忽略")
				continue
			}
			num, err := phonenumbers.Parse(raw, phoneRegion)
			if err != nil {
				logger.Warn().Err(err).Str("phone", raw).Msg("电话号码解析失败")
				continue
			}
			typ, _ := n.Attr("type")
			phones = append(phones, types.Phone{
				Value: formatPhone(num),
				Label: PhoneLabelFor(typ),
			})
		}
	}
	return phones
}

// formatPhone 有国家码时输出E.164，否则输出国内号码；分机号以x拼接
func formatPhone(num *phonenumbers.PhoneNumber) string {
	var value string
	if num.GetCountryCode() != 0 {
		value = phonenumbers.Format(num, phonenumbers.E164)
	} else {
		value = strconv.FormatUint(num.GetNationalNumber(), 10)
	}
	if ext := num.GetExtension(); ext != "" {
		value += "x" + ext
	}
	return value
}

// ParseAddresses 每个带address的contact节点产出一条地址。
// legacyCounts为false时丢弃完全相同的重复地址（嵌套contact会重复命中同一个address）。
func ParseAddresses(doc bgxml.Node, legacyCounts bool) []types.Address {
	addresses := make([]types.Address, 0)
	seen := make(map[addressParts]struct{})
	for _, contact := range doc.FindAll("contact") {
		node := contact.FindFirst("address")
		if node == nil {
			continue
		}
		parts := readAddress(node)
		if !legacyCounts {
			if _, ok := seen[parts]; ok {
				continue
			}
			seen[parts] = struct{}{}
		}
		addresses = append(addresses, parts.toAddress())
	}
	return addresses
}

type addressParts struct {
	line1, city, state, country, zip string
}

func (p addressParts) toAddress() types.Address {
	return types.Address{
		AddressLine1: nullable(p.line1),
		City:         nullable(p.city),
		State:        nullable(p.state),
		CountryCode:  nullable(p.country),
		ZipCode:      nullable(p.zip),
	}
}

// readAddress 读取address节点。city/state 优先取子标签，没有时用 inferred-* 属性
func readAddress(node bgxml.Node) addressParts {
	if node == nil {
		return addressParts{}
	}
	city := TagText(node, "city", CollapseNewlines(), TitleCase())
	if city == "" {
		if v := attrText(node, "inferred-city"); v != "" {
			city = titleCase(v)
		}
	}
	state := TagText(node, "state", CollapseNewlines())
	if state == "" {
		if v := attrText(node, "inferred-state"); v != "" {
			state = titleCase(v)
		}
	}
	return addressParts{
		line1:   TagText(node, "street", CollapseNewlines()),
		city:    city,
		state:   state,
		country: CountryCodeFromISO3(attrText(node.FindFirst("country"), "iso3")),
		zip:     SanitizeZipCode(TagText(node, "postalcode")),
	}
}

// SanitizeZipCode 规范化美国邮编：不超过5位补零到5位，6到9位补零到9位并输出为"12345 6789"，其余返回空串
func SanitizeZipCode(zip string) string {
	digits := zipSeparators.Replace(zipNoise.ReplaceAllString(zip, ""))
	switch n := len(digits); {
	case n == 0:
		return ""
	case n <= 5:
		return strings.Repeat("0", 5-n) + digits
	case n <= 9:
		digits = strings.Repeat("0", 9-n) + digits
		return digits[:5] + " " + digits[5:]
	default:
		return ""
	}
}

// CountryCodeFromISO3 ISO 3166-1 三字母码转两字母码，无法识别时返回空串
func CountryCodeFromISO3(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return ""
	}
	c := countries.ByName(code)
	if c == countries.Unknown {
		return ""
	}
	return c.Alpha2()
}
