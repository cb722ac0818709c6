package utils

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ExtractString safely extracts a string from a DynamoDB attribute map
func ExtractString(item map[string]types.AttributeValue, field string) string {
	if attr, ok := item[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberS); ok {
			return v.Value
		}
	}
	return ""
}

// ExtractInt safely extracts a number from a DynamoDB attribute map
func ExtractInt(item map[string]types.AttributeValue, field string) int {
	if attr, ok := item[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberN); ok {
			if n, err := strconv.Atoi(v.Value); err == nil {
				return n
			}
		}
	}
	return 0
}

// ExtractBool safely extracts a boolean from a DynamoDB attribute map
func ExtractBool(item map[string]types.AttributeValue, field string) bool {
	if attr, ok := item[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberBOOL); ok {
			return v.Value
		}
	}
	return false
}

// ExtractStringList extracts a list of strings, skipping non-string members
func ExtractStringList(item map[string]types.AttributeValue, field string) []string {
	var out []string
	if attr, ok := item[field]; ok {
		if list, ok := attr.(*types.AttributeValueMemberL); ok {
			for _, member := range list.Value {
				if s, ok := member.(*types.AttributeValueMemberS); ok {
					out = append(out, s.Value)
				}
			}
		}
	}
	return out
}

// ExtractFirstMedia extracts the first media URL from a list attribute
func ExtractFirstMedia(item map[string]types.AttributeValue, field string) string {
	if urls := ExtractStringList(item, field); len(urls) > 0 {
		return urls[0]
	}
	return ""
}

// HasAttribute reports whether the attribute is present at all
func HasAttribute(item map[string]types.AttributeValue, field string) bool {
	_, ok := item[field]
	return ok
}
