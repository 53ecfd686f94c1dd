package anthropic

// BuildCachedSystemBlocks wraps the system prompt in a single block with a
// cache breakpoint. Every attempt of a retry loop shares the same system
// prompt, so later attempts read it from the prompt cache. An empty ttl
// uses the API default of five minutes.
func BuildCachedSystemBlocks(text, ttl string) []SystemBlock {
	if text == "" {
		return nil
	}
	return []SystemBlock{
		{
			Text:         text,
			CacheControl: &CacheControl{TTL: ttl},
		},
	}
}
