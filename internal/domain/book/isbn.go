package book

import (
	"strings"
)

// NormalizeISBN 去掉连字符和空格（978-0-14-143951-8 → 9780141439518）
func NormalizeISBN(isbn string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(isbn))
}

// IsValidISBN13 校验ISBN-13（13位数字，前缀978/979，校验位正确）
// 校验位算法：奇数位权重1，偶数位权重3，总和能被10整除
func IsValidISBN13(isbn string) bool {
	isbn = NormalizeISBN(isbn)
	if len(isbn) != 13 {
		return false
	}
	if !strings.HasPrefix(isbn, "978") && !strings.HasPrefix(isbn, "979") {
		return false
	}

	sum := 0
	for i, r := range isbn {
		if r < '0' || r > '9' {
			return false
		}
		d := int(r - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return sum%10 == 0
}
