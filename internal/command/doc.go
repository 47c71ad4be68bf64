// Package command 把网关实际支持的动作绑定到静态已知的命令签名
//
// 绑定只按名称对账：
//
//	SCPD 动作 ──┬── 表中有同名签名 ──▶ Bound（可调用）
//	            └── 表中没有       ──▶ 未支持台账（serviceType, action）
//
// 输入输出参数名取自网关的 SCPD 文档，按位置映射到签名声明的类型上；
// 返回值在反序列化之后、交给调用方之前按类型转换（例如 NullableString
// 把 "none"/"nil" 变成 nil）。绑定过程本身不做网络 I/O。
package command
