package goblin

// Lookup data for the generator. Grids are 6x6 and indexed by two d6 rolls
// (row, column), zero-based.

// modifier is the attribute shift of a describer. FreePoints go to a random
// attribute instead of a fixed one.
type modifier struct {
	Attributes
	FreePoints int
}

var occupationModifiers = [occupationCount]Attributes{
	Carregador:  {Vitality: 2, Wits: -1},
	Cacador:     {Skill: 1, Wits: 1, Vitality: -1},
	Gatuno:      {Skill: 2, Combat: -1},
	Lider:       {Combat: 1, Wits: 1, Skill: -1},
	Piromaniaco: {Combat: 1, Skill: 1, Wits: -1},
	Bruxo:       {Wits: 2, Vitality: -1},
}

var describerModifiers = [describerCount]modifier{
	Supimpa:   {FreePoints: 1},
	Forte:     {Attributes: Attributes{Combat: 1}},
	Esperto:   {Attributes: Attributes{Wits: 1}},
	Agil:      {Attributes: Attributes{Skill: 1}},
	Robusto:   {Attributes: Attributes{Vitality: 1}},
	Esquisito: {Attributes: Attributes{Wits: 2, Combat: -1}},
}

var occupationTechniques = [occupationCount]Technique{
	Carregador:  {Title: "Costas Largas", Description: "Carrega o dobro de itens sem penalidade e pode levar um aliado caído nas costas."},
	Cacador:     {Title: "Faro Aguçado", Description: "Rastreia qualquer criatura que tenha passado por ali no último dia."},
	Gatuno:      {Title: "Mão Leve", Description: "Uma vez por cena, furta um objeto pequeno sem que ninguém perceba."},
	Lider:       {Title: "Grito de Guerra", Description: "Todos os aliados próximos rolam um dado extra na próxima ação."},
	Piromaniaco: {Title: "Fogo Amigo", Description: "Acende qualquer coisa inflamável com um estalar de dedos, inclusive o que não devia."},
	Bruxo:       {Title: "Conjuração Instável", Description: "Lança uma magia conhecida; numa falha crítica o efeito sai ao contrário."},
}

// Each occupation has three starting sets. The primary slot is either a
// weapon or "weapon e armor".
var occupationGear = [occupationCount][3]string{
	Carregador:  {"Clava e Escudo de Madeira", "Martelo", "Lança e Broquel"},
	Cacador:     {"Arco Curto", "Azagaia e Gibão Acolchoado", "Funda e Broquel"},
	Gatuno:      {"Adaga e Gibão Acolchoado", "Funda", "Espada Curta"},
	Lider:       {"Espada Curta e Escudo de Madeira", "Machado e Elmo Amassado", "Lança"},
	Piromaniaco: {"Tocha e Trapos Grossos", "Tocha", "Porrete com Pregos e Broquel"},
	Bruxo:       {"Cajado", "Adaga e Trapos Grossos", "Cajado e Gibão Acolchoado"},
}

// Loadout for an occupation with no gear entry.
const (
	fallbackWeapon = "Adaga"
	fallbackArmor  = "Broquel"
	fallbackItem   = "Corda e Gancho"
)

var weapons = map[string]WeaponDetails{
	"Adaga":              {Usage: "1 mão", Attack: "Corpo a corpo", Bonus: 0, Special: "Pode ser arremessada."},
	"Espada Curta":       {Usage: "1 mão", Attack: "Corpo a corpo", Bonus: 1, Special: "Nenhum."},
	"Lança":              {Usage: "2 mãos", Attack: "Corpo a corpo", Bonus: 1, Special: "Ataca antes de quem tem arma curta."},
	"Machado":            {Usage: "2 mãos", Attack: "Corpo a corpo", Bonus: 2, Special: "Corta portas e escudos."},
	"Arco Curto":         {Usage: "2 mãos", Attack: "Distância", Bonus: 1, Special: "Precisa de flechas."},
	"Funda":              {Usage: "1 mão", Attack: "Distância", Bonus: 0, Special: "Qualquer pedra serve de munição."},
	"Clava":              {Usage: "1 mão", Attack: "Corpo a corpo", Bonus: 0, Special: "Atordoa num resultado máximo."},
	"Cajado":             {Usage: "2 mãos", Attack: "Corpo a corpo", Bonus: 0, Special: "Foco para magias."},
	"Tocha":              {Usage: "1 mão", Attack: "Corpo a corpo", Bonus: 0, Special: "Incendeia o alvo num resultado máximo."},
	"Martelo":            {Usage: "2 mãos", Attack: "Corpo a corpo", Bonus: 2, Special: "Amassa armaduras."},
	"Azagaia":            {Usage: "1 mão", Attack: "Distância", Bonus: 1, Special: "Volta para a mão só se alguém for buscar."},
	"Porrete com Pregos": {Usage: "1 mão", Attack: "Corpo a corpo", Bonus: 1, Special: "Causa sangramento."},
}

var protections = map[string]ArmorDetails{
	"Broquel":           {Usage: "1 mão", Durability: 2, Special: "Pode aparar um golpe por cena."},
	"Escudo de Madeira": {Usage: "1 mão", Durability: 3, Special: "Pega fogo com facilidade."},
	"Armadura de Couro": {Usage: "Corpo", Durability: 3, Special: "Nenhum."},
	"Elmo Amassado":     {Usage: "Cabeça", Durability: 1, Special: "Ignora o primeiro golpe na cabeça."},
	"Gibão Acolchoado":  {Usage: "Corpo", Durability: 2, Special: "Silencioso."},
	"Trapos Grossos":    {Usage: "Corpo", Durability: 1, Special: "Fede, mas protege."},
}

// protectionNames keeps draws over protections in a stable order.
var protectionNames = []string{
	"Broquel", "Escudo de Madeira", "Armadura de Couro",
	"Elmo Amassado", "Gibão Acolchoado", "Trapos Grossos",
}

var miscEquipment = []string{
	"Corda e Gancho", "Tocha Extra", "Saco de Pedras", "Rato de Estimação",
	"Cogumelos Suspeitos", "Pederneira", "Garrafa de Grogue", "Panela Amassada",
	"Osso Roído", "Mapa Rasgado", "Chave Enferrujada", "Espelho Quebrado",
}

var spells = []string{
	"Bola de Fogo Pequena", "Luz Bruxuleante", "Mão Fedorenta", "Invisibilidade Parcial",
	"Voz de Trovão", "Pele de Pedra", "Sono Profundo", "Teia Pegajosa",
	"Língua dos Ratos", "Maldição do Soluço",
}

// Special cells of the name grid.
const (
	nameFood    = "\x00food"
	nameReverse = "\x00reverse"
	nameTwice   = "\x00twice"
)

// plainNameRows bounds the rows that hold only ordinary names.
const plainNameRows = 5

var nameGrid = [6][6]string{
	{"Grik", "Zug", "Snaga", "Bork", "Nitz", "Gorba"},
	{"Ratz", "Skrag", "Fizz", "Mugo", "Krat", "Zibb"},
	{"Gnash", "Wort", "Pimpo", "Drek", "Sluk", "Torb"},
	{"Ugga", "Blix", "Narg", "Kekko", "Frug", "Zorp"},
	{"Mobb", "Griz", "Tuk", "Varga", "Pix", "Gralha"},
	{nameFood, nameReverse, nameTwice, "Bolota", "Sujo", "Catarro"},
}

var foodNames = []string{"Rato", "Cogumelo", "Inseto", "Pão Mofado", "Sopa", "Lixo"}

// traitTwice marks the cells of the trait grid that combine two other traits.
const traitTwice = "\x00twice"

var traitGrid = [6][6]string{
	{"Orelhas enormes", "Nariz pontudo", "Dentes tortos", "Careca", "Verrugas", traitTwice},
	{"Cicatriz no rosto", "Um olho só", "Unhas compridas", "Corcunda", "Cabelo espetado", "Sardas"},
	{"Barriga saliente", "Pés enormes", "Sobrancelha única", "Tatuagens tribais", "Pescoço fino", "Orelha mordida"},
	{"Dedos a mais", "Língua bifurcada", "Chifrinhos", "Pele escamosa", "Bigode ralo", "Mancha de nascença"},
	{"Voz fina", "Cheiro forte", "Olhos esbugalhados", "Braços compridos", "Dente de ouro", "Piercing no nariz"},
	{traitTwice, "Cabelo de vassoura", "Manco", "Queixo duplo", "Pintas roxas", "Sem sobrancelhas"},
}

var heights = []string{"Baixinho", "Médio", "Alto para um goblin", "Muito alto"}

var weights = []string{"Magrelo", "Esguio", "Normal", "Gordinho", "Pesadão"}

var skinColors = []string{"Verde-musgo", "Verde-limão", "Cinza", "Amarelado", "Azulado"}

var eyeColors = []string{"Amarelos", "Vermelhos", "Pretos", "Laranja", "Verdes"}

var personalityTraits = []string{
	"Covarde", "Ganancioso", "Curioso", "Briguento", "Preguiçoso", "Leal",
	"Mentiroso", "Guloso", "Desconfiado", "Exibido", "Medroso do escuro", "Piadista",
}

var lucks = []string{
	"Encontra uma moeda de ouro sempre que procura no chão.",
	"Uma vez por sessão, ignora um golpe que o mataria.",
	"Animais pequenos gostam dele.",
	"Acerta o primeiro ataque de cada combate.",
	"Sempre acha o caminho de volta para casa.",
}

var curses = []string{
	"Espirra alto nos piores momentos.",
	"Moedas somem dos bolsos dele.",
	"Cães latem para ele onde quer que vá.",
	"Falha automaticamente na primeira rolagem de cada sessão.",
	"Não consegue mentir sem ficar verde-claro.",
}
