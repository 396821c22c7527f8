// FILE: internal/core/features.go
package core

// FeatureReport is the full static characterization of a single position.
// Every square reference uses algebraic names ("e4"); counts are never
// negative. Produced by analysis.ExtractFeatures, consumed by the display
// boundary verbatim.
type FeatureReport struct {
	Material       MaterialFeature      `json:"material"`
	CenterControl  CenterControlFeature `json:"center_control"`
	KingSafety     KingSafetyBySide     `json:"king_safety"`
	PawnStructure  StringsBySide        `json:"pawn_structure"`
	DoubledPawns   StringsBySide        `json:"doubled_pawns"`
	PassedPawns    StringsBySide        `json:"passed_pawns"`
	Outposts       StringsBySide        `json:"outposts"`
	BishopPair     BoolBySide           `json:"bishop_pair"`
	WeakSquares    StringsBySide        `json:"weak_squares"`
	OpenFiles      []string             `json:"open_files"`
	SemiOpenFiles  StringsBySide        `json:"semi_open_files"`
	Diagonals      DiagonalsFeature     `json:"diagonals"`
	RookPlacement  RookPlacementBySide  `json:"rook_placement"`
	Mobility       MobilityFeature      `json:"mobility"`
	PieceActivity  ActivityBySide       `json:"piece_activity"`
	SpaceAdvantage SpaceFeature         `json:"space_advantage"`
	AttackedPieces AttackedBySide       `json:"attacked_pieces"`
	LooseHanging   LooseHangingBySide   `json:"loose_and_hanging"`
}

// MaterialFeature sums piece values (pawn=1, minor=3, rook=5, queen=9) signed
// by color; Advantage is "white", "black" or "equal".
type MaterialFeature struct {
	Balance   int    `json:"balance"`
	Advantage string `json:"advantage"`
}

type CenterControlFeature struct {
	WhiteCount int `json:"white_count"`
	BlackCount int `json:"black_count"`
}

type KingSafetyBySide struct {
	White KingSafety `json:"white"`
	Black KingSafety `json:"black"`
}

type KingSafety struct {
	Status            string `json:"status"`
	CanCastleKingside bool   `json:"can_castle_kingside"`
	CanCastleQueenside bool  `json:"can_castle_queenside"`
	InCheck           bool   `json:"in_check"`
	AttackerCount     int    `json:"attacker_count"`
	PawnShieldCount   int    `json:"pawn_shield_count"`
}

type StringsBySide struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

type BoolBySide struct {
	White bool `json:"white"`
	Black bool `json:"black"`
}

// DiagonalsFeature covers diagonals of length >= 4 only, named by their end
// squares ("a1-h8").
type DiagonalsFeature struct {
	Open          []string `json:"open"`
	SemiOpenWhite []string `json:"semi_open_white"`
	SemiOpenBlack []string `json:"semi_open_black"`
}

type RookPlacementBySide struct {
	White RookPlacement `json:"white"`
	Black RookPlacement `json:"black"`
}

type RookPlacement struct {
	Open     []string `json:"open"`
	SemiOpen []string `json:"semi_open"`
}

// MobilityFeature counts legal moves per side, each computed with that side
// to move regardless of the actual turn.
type MobilityFeature struct {
	WhiteMoves int `json:"white_moves"`
	BlackMoves int `json:"black_moves"`
}

type ActivityBySide struct {
	White []PieceActivity `json:"white"`
	Black []PieceActivity `json:"black"`
}

type PieceActivity struct {
	Piece     string   `json:"piece"`
	Square    string   `json:"square"`
	MoveCount int      `json:"move_count"`
	Moves     []string `json:"moves"`
}

type SpaceFeature struct {
	WhiteSpace int    `json:"white_space"`
	BlackSpace int    `json:"black_space"`
	Advantage  string `json:"advantage"`
}

type AttackedBySide struct {
	White []AttackedPiece `json:"white"`
	Black []AttackedPiece `json:"black"`
}

type AttackedPiece struct {
	Piece     string     `json:"piece"`
	Square    string     `json:"square"`
	Attackers []PieceRef `json:"attackers"`
}

type PieceRef struct {
	Piece  string `json:"piece"`
	Square string `json:"square"`
}

type LooseHangingBySide struct {
	White LooseHanging `json:"white"`
	Black LooseHanging `json:"black"`
}

// LooseHanging lists non-pawn, non-king pieces whose attacker count exceeds
// (hanging) or equals (loose, with at least one attacker) their defender count.
type LooseHanging struct {
	Loose   []string `json:"loose"`
	Hanging []string `json:"hanging"`
}
