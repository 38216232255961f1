package dsl

import "fmt"

// Params 把命令参数按 "键 值" 成对解析，例如 `x 30 y 40 color #fff`。
// 键必须是标识符且不可重复。
func (c *Command) Params() (map[string]Lexeme, error) {
	out := make(map[string]Lexeme, len(c.Args)/2)
	for i := 0; i < len(c.Args); i += 2 {
		key := c.Args[i]
		if key.Type != "Ident" {
			return nil, fmt.Errorf("%s: %s 的参数名应为标识符，实际为 %q", key.Pos, c.Name, key.Raw)
		}
		if i+1 >= len(c.Args) {
			return nil, fmt.Errorf("%s: %s 的参数 %s 缺少取值", key.Pos, c.Name, key.Value)
		}
		if _, dup := out[key.Value]; dup {
			return nil, fmt.Errorf("%s: %s 的参数 %s 重复", key.Pos, c.Name, key.Value)
		}
		out[key.Value] = *c.Args[i+1]
	}
	return out, nil
}

// Text 返回命令块中的第一个文本字面量。
func (c *Command) Text() (string, bool) {
	if c == nil || c.Block == nil {
		return "", false
	}
	for _, st := range c.Block.Statements {
		if st.Text != nil {
			return string(st.Text.Value), true
		}
	}
	return "", false
}

// Assignments 收集块内的 `key: value` 赋值，后出现的同名键覆盖先前的值。
func (b *Block) Assignments() map[string]*Value {
	out := map[string]*Value{}
	if b == nil {
		return out
	}
	for _, st := range b.Statements {
		if st.Assignment != nil {
			out[st.Assignment.Key] = st.Assignment.Value
		}
	}
	return out
}

// Commands 返回块内的全部命令。
func (b *Block) Commands() []*Command {
	if b == nil {
		return nil
	}
	var out []*Command
	for _, st := range b.Statements {
		if st.Command != nil {
			out = append(out, st.Command)
		}
	}
	return out
}
