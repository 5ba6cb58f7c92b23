package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/lk2023060901/binser-go/pkg/util/merr"
)

// KeySize 为主密钥长度，单位字节。
const KeySize = 32

// macSize 为 BLAKE3 keyed hash 的输出长度。
const macSize = 32

// 以下错误返回时与 merr.ErrEncryptFailed 组合，两者都可以用 errors.Is 判断。
var (
	// ErrPacketTooShort 表示加密报文长度不足，
	// 无法包含完整的 nonce、密文和 MAC。
	ErrPacketTooShort = errors.New("crypto: packet too short")

	// ErrInvalidMAC 表示 MAC 签名校验失败。
	ErrInvalidMAC = errors.New("crypto: invalid mac")
)

// HKDF info，用于从同一主密钥派生互不相关的加密密钥与签名密钥。
var (
	hkdfInfoEncryption = []byte("binser.pipeline.enc.v1")
	hkdfInfoMAC        = []byte("binser.pipeline.mac.v1")
)

// AEADMACCodec 组合两层保护：
//   - 对称加密：XChaCha20‑Poly1305（AEAD，提供机密性 + 完整性）
//   - 消息签名：BLAKE3 keyed hash（对 nonce、密文和关联数据再做一层签名）
//
// 典型使用场景：
//   - plaintext：序列化（及压缩）后的消息体
//   - aad（Associated Data）：不会加密但需要保护不被篡改的头部信息
//    （例如消息类型、序号、时间戳等）
//
// 报文格式：nonce || ciphertext || mac
//   - nonce     ：24 字节随机数
//   - ciphertext：XChaCha20‑Poly1305 密文（包含 16 字节 tag）
//   - mac       ：BLAKE3(macKey, nonce || ciphertext || aad)
type AEADMACCodec struct {
	aead   cipher.AEAD
	macKey [KeySize]byte
}

// 确保 AEADMACCodec 满足 Encryptor 接口。
var _ Encryptor = (*AEADMACCodec)(nil)

// NewXChaChaBlake3Codec 从 32 字节主密钥派生加密密钥和签名密钥并创建编码器。
func NewXChaChaBlake3Codec(masterKey []byte) (*AEADMACCodec, error) {
	if len(masterKey) != KeySize {
		return nil, merr.WrapErrParameterInvalid(KeySize, len(masterKey), "master key length")
	}

	var encKey [KeySize]byte
	if err := deriveKey(masterKey, hkdfInfoEncryption, encKey[:]); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(encKey[:])
	if err != nil {
		return nil, merr.WrapErrEncryptFailed(err)
	}

	c := &AEADMACCodec{aead: aead}
	if err := deriveKey(masterKey, hkdfInfoMAC, c.macKey[:]); err != nil {
		return nil, err
	}
	return c, nil
}

func deriveKey(masterKey, info, out []byte) error {
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, info), out); err != nil {
		return merr.WrapErrEncryptFailed(err)
	}
	return nil
}

// Overhead 返回加密后报文相对明文增加的字节数。
func (c *AEADMACCodec) Overhead() int {
	return c.aead.NonceSize() + c.aead.Overhead() + macSize
}

// EncryptAndSign 对明文进行加密并计算签名。
//
//   - plaintext：待加密的数据
//   - aad      ：关联数据，不会被加密，但会被 AEAD 和 MAC 共同保护
func (c *AEADMACCodec) EncryptAndSign(plaintext, aad []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	packet := make([]byte, nonceSize, len(plaintext)+c.Overhead())
	if _, err := io.ReadFull(rand.Reader, packet); err != nil {
		return nil, merr.WrapErrEncryptFailed(err)
	}

	packet = c.aead.Seal(packet, packet[:nonceSize], plaintext, aad)

	mac, err := c.sign(packet, aad)
	if err != nil {
		return nil, err
	}
	return append(packet, mac...), nil
}

// VerifyAndDecrypt 验证签名并解密报文。
//
//   - packet：EncryptAndSign 生成的报文
//   - aad  ：加密时使用的关联数据，必须保持一致
func (c *AEADMACCodec) VerifyAndDecrypt(packet, aad []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(packet) < nonceSize+c.aead.Overhead()+macSize {
		return nil, merr.Combine(ErrPacketTooShort, merr.ErrEncryptFailed)
	}

	macOffset := len(packet) - macSize
	expected, err := c.sign(packet[:macOffset], aad)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(expected, packet[macOffset:]) != 1 {
		return nil, merr.Combine(ErrInvalidMAC, merr.ErrEncryptFailed)
	}

	nonce := packet[:nonceSize]
	plaintext, err := c.aead.Open(nil, nonce, packet[nonceSize:macOffset], aad)
	if err != nil {
		return nil, merr.WrapErrEncryptFailed(err)
	}
	return plaintext, nil
}

// sign 计算 BLAKE3(macKey, body || aad)。
func (c *AEADMACCodec) sign(body, aad []byte) ([]byte, error) {
	h, err := blake3.NewKeyed(c.macKey[:])
	if err != nil {
		return nil, merr.WrapErrEncryptFailed(err)
	}
	_, _ = h.Write(body)
	_, _ = h.Write(aad)
	return h.Sum(nil), nil
}

// Encrypt 实现 Encryptor 接口，语义等价于 EncryptAndSign。
func (c *AEADMACCodec) Encrypt(plaintext, aad []byte) ([]byte, error) {
	return c.EncryptAndSign(plaintext, aad)
}

// Decrypt 实现 Encryptor 接口，语义等价于 VerifyAndDecrypt。
func (c *AEADMACCodec) Decrypt(packet, aad []byte) ([]byte, error) {
	return c.VerifyAndDecrypt(packet, aad)
}
