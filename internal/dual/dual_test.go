package dual

import (
	"context"
	"errors"
	"testing"
)

func TestLerPrefereRemoto(t *testing.T) {
	res, err := Ler(context.Background(), "teste.ler",
		func(ctx context.Context) (int, error) { return 7, nil },
		func(ctx context.Context) (int, error) { t.Fatal("local não deveria rodar"); return 0, nil },
	)
	if err != nil {
		t.Fatalf("Ler: %v", err)
	}
	if res.Valor != 7 || res.Origem != OrigemRemota {
		t.Fatalf("res = %+v, esperava valor 7 com origem remota", res)
	}
}

func TestLerCaiParaLocalUmaTentativaRemota(t *testing.T) {
	tentativas := 0
	res, err := Ler(context.Background(), "teste.fallback",
		func(ctx context.Context) (string, error) {
			tentativas++
			return "", errors.New("remoto fora do ar")
		},
		func(ctx context.Context) (string, error) { return "local", nil },
	)
	if err != nil {
		t.Fatalf("Ler: %v", err)
	}
	if res.Valor != "local" || res.Origem != OrigemLocal {
		t.Fatalf("res = %+v, esperava valor local", res)
	}
	if tentativas != 1 {
		t.Fatalf("tentativas remotas = %d, esperava exatamente 1", tentativas)
	}
}

func TestLerSemRemotoVaiDireitoAoLocal(t *testing.T) {
	res, err := Ler(context.Background(), "teste.semremoto", nil,
		func(ctx context.Context) (int, error) { return 3, nil },
	)
	if err != nil {
		t.Fatalf("Ler: %v", err)
	}
	if res.Valor != 3 || res.Origem != OrigemLocal {
		t.Fatalf("res = %+v", res)
	}
}

func TestGravarFalhaDupla(t *testing.T) {
	falhaLocal := errors.New("disco cheio")
	res, err := Gravar(context.Background(), "teste.falha",
		func(ctx context.Context) (int, error) { return 0, errors.New("remoto fora") },
		func(ctx context.Context) (int, error) { return 0, falhaLocal },
	)
	if !errors.Is(err, falhaLocal) {
		t.Fatalf("erro = %v, esperava o erro local", err)
	}
	if res.Origem != OrigemFalha {
		t.Fatalf("origem = %v, esperava falha", res.Origem)
	}
}

func TestGravarSemBackends(t *testing.T) {
	if _, err := Gravar[int](context.Background(), "teste.vazio", nil, nil); err == nil {
		t.Fatal("Gravar sem backends deveria falhar")
	}
}
